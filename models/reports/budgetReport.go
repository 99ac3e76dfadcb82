package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/expenses"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
	"bitbucket.org/mmdatafocus/budgets_backend/repetitions"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("budgets_backend/reports")

// maximum budgets computed at once by one report
const reportConcurrency = 8

// Reporter composes the engine over a set of budgets. Listing operations and
// unbudgeted spending are scoped to the user id in the context, all users when absent.
type Reporter struct {
	Store      models.BudgetStore
	Journals   models.JournalStore
	Aggregator *expenses.Aggregator
	Resolver   *repetitions.Resolver
	// Cache holds BudgetedPerYear results; nil disables caching.
	Cache SeriesCache
}

func NewReporter(budgets models.BudgetStore, journals models.JournalStore, resolver *repetitions.Resolver) *Reporter {
	if resolver == nil {
		resolver = repetitions.NewResolver()
	}
	return &Reporter{
		Store:      budgets,
		Journals:   journals,
		Aggregator: expenses.NewAggregator(journals, resolver),
		Resolver:   resolver,
		Cache:      DefaultSeriesCache(),
	}
}

func userIdFrom(ctx context.Context) int {
	userId, _ := utils.GetUserIdFromContext(ctx)
	return userId
}

// startReport opens a span and returns a finisher that records the error and
// logs runs slower than REPORT_SLOW_MS.
func startReport(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := tracer.Start(ctx, "reports."+name, trace.WithAttributes(attrs...))
	began := time.Now()
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
			config.LogError(config.GetLogger(), "reports", name, "report failed", nil, *errp)
		}
		span.End()
		if elapsed := time.Since(began); elapsed > config.ReportSlowThreshold() {
			correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
			config.GetLogger().WithFields(logrus.Fields{
				"module":        "reports",
				"funcName":      name,
				"elapsedMs":     elapsed.Milliseconds(),
				"correlationId": correlationId,
			}).Warn("slow report")
		}
	}
}

// perBudget runs fn for every budget concurrently and keeps input order.
func perBudget(ctx context.Context, budgets []*models.Budget, fn func(context.Context, *models.Budget) ([]models.PeriodAmount, error)) ([]BudgetSeries, error) {
	results := make([]BudgetSeries, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, b := range budgets {
		g.Go(func() error {
			amounts, err := fn(gctx, b)
			if err != nil {
				return err
			}
			results[i] = BudgetSeries{Budget: b, Amounts: amounts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Reporter) expensesPer(ctx context.Context, name string, g periods.Granularity, budgets []*models.Budget, accounts []int, start, end time.Time) (series []BudgetSeries, err error) {
	ctx, finish := startReport(ctx, name,
		attribute.Int("budgets", len(budgets)),
		attribute.Int("accounts", len(accounts)),
		attribute.String("start", start.Format(time.DateOnly)),
		attribute.String("end", end.Format(time.DateOnly)))
	defer finish(&err)

	if err := models.CheckRange(periods.Date(start), periods.Date(end)); err != nil {
		return nil, err
	}
	return perBudget(ctx, budgets, func(ctx context.Context, b *models.Budget) ([]models.PeriodAmount, error) {
		return r.Aggregator.ExpensesPerBucket(ctx, b, start, end, g, accounts)
	})
}

// ExpensesPerMonth returns each budget's outflow per month, in the order of budgets.
func (r *Reporter) ExpensesPerMonth(ctx context.Context, budgets []*models.Budget, accounts []int, start, end time.Time) ([]BudgetSeries, error) {
	return r.expensesPer(ctx, "ExpensesPerMonth", periods.Month, budgets, accounts, start, end)
}

// ExpensesPerYear returns each budget's outflow per year, in the order of budgets.
func (r *Reporter) ExpensesPerYear(ctx context.Context, budgets []*models.Budget, accounts []int, start, end time.Time) ([]BudgetSeries, error) {
	return r.expensesPer(ctx, "ExpensesPerYear", periods.Year, budgets, accounts, start, end)
}

// BudgetedPerYear sums, per year bucket, the amounts of the repetitions
// intersecting that bucket.
func (r *Reporter) BudgetedPerYear(ctx context.Context, budgets []*models.Budget, start, end time.Time) (series []BudgetSeries, err error) {
	ctx, finish := startReport(ctx, "BudgetedPerYear", attribute.Int("budgets", len(budgets)))
	defer finish(&err)

	buckets, err := periods.BuildBuckets(start, end, periods.Year)
	if err != nil {
		return nil, err
	}
	return r.cachedSeries(ctx, "BudgetedPerYear", budgets, start, end, func() ([]BudgetSeries, error) {
		return perBudget(ctx, budgets, func(_ context.Context, b *models.Budget) ([]models.PeriodAmount, error) {
			return r.budgetedPerBucket(b, buckets, start, end)
		})
	})
}

func (r *Reporter) budgetedPerBucket(b *models.Budget, buckets []periods.Bucket, start, end time.Time) ([]models.PeriodAmount, error) {
	reps, err := r.Resolver.InRange(b, start, end)
	if err != nil {
		return nil, err
	}
	amounts := make([]models.PeriodAmount, 0, len(buckets))
	for _, bucket := range buckets {
		total := decimal.Zero
		for _, rep := range reps {
			if rep.Overlaps(bucket.Start, bucket.Before()) {
				total = total.Add(rep.Amount)
			}
		}
		amounts = append(amounts, models.PeriodAmount{
			Label:  periods.Label(bucket.Start, periods.Year),
			Start:  bucket.Start,
			End:    bucket.End,
			Amount: total,
		})
	}
	return amounts, nil
}

func (r *Reporter) outflows(ctx context.Context, start, end time.Time, withoutBudget bool) ([]*models.Journal, error) {
	start, end = periods.Date(start), periods.Date(end)
	if err := models.CheckRange(start, end); err != nil {
		return nil, err
	}
	return r.Journals.FindJournals(ctx, models.JournalFilter{
		UserId:        userIdFrom(ctx),
		WithoutBudget: withoutBudget,
		From:          start,
		Before:        end.AddDate(0, 0, 1),
		OutflowOnly:   true,
	})
}

// WithoutBudget returns outflows in [start, end] not linked to any budget, oldest first.
func (r *Reporter) WithoutBudget(ctx context.Context, start, end time.Time) (journals []*models.Journal, err error) {
	ctx, finish := startReport(ctx, "WithoutBudget")
	defer finish(&err)
	return r.outflows(ctx, start, end, true)
}

func (r *Reporter) WithoutBudgetSum(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	journals, err := r.WithoutBudget(ctx, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	return models.SumAmounts(journals), nil
}

// TotalExpenses is every recorded outflow in [start, end], budgeted or not.
func (r *Reporter) TotalExpenses(ctx context.Context, start, end time.Time) (total decimal.Decimal, err error) {
	ctx, finish := startReport(ctx, "TotalExpenses")
	defer finish(&err)
	journals, err := r.outflows(ctx, start, end, false)
	if err != nil {
		return decimal.Zero, err
	}
	return models.SumAmounts(journals), nil
}

// Budgets lists the context user's budgets ordered by id.
func (r *Reporter) Budgets(ctx context.Context) ([]*models.Budget, error) {
	budgets, err := r.Store.ListBudgets(ctx, userIdFrom(ctx))
	if err != nil {
		config.LogError(config.GetLogger(), "reports", "Budgets", "listing budgets", userIdFrom(ctx), err)
		return nil, err
	}
	return budgets, nil
}

func (r *Reporter) ActiveBudgets(ctx context.Context) ([]*models.Budget, error) {
	budgets, err := r.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	active, _ := models.SplitByActive(budgets)
	return active, nil
}

func (r *Reporter) InactiveBudgets(ctx context.Context) ([]*models.Budget, error) {
	budgets, err := r.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	_, inactive := models.SplitByActive(budgets)
	return inactive, nil
}

// BudgetsAndLimitsInRange lists every budget with its repetitions in range.
// Budgets without repetitions are listed with an empty slice.
func (r *Reporter) BudgetsAndLimitsInRange(ctx context.Context, start, end time.Time) (result []BudgetRepetitions, err error) {
	ctx, finish := startReport(ctx, "BudgetsAndLimitsInRange")
	defer finish(&err)

	budgets, err := r.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	result = make([]BudgetRepetitions, 0, len(budgets))
	for _, b := range budgets {
		reps, err := r.Resolver.InRange(b, start, end)
		if err != nil {
			return nil, err
		}
		result = append(result, BudgetRepetitions{Budget: b, Repetitions: reps})
	}
	return result, nil
}
