package workflow

import (
	"context"
	"io"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/balances"
	"bitbucket.org/mmdatafocus/budgets_backend/expenses"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/models/reports"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
	"bitbucket.org/mmdatafocus/budgets_backend/repetitions"
	"bitbucket.org/mmdatafocus/budgets_backend/store"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"github.com/shopspring/decimal"
)

// BudgetRepository puts every budget read and write behind one value.
type BudgetRepository struct {
	Resolver   *repetitions.Resolver
	Aggregator *expenses.Aggregator
	Corrector  *balances.Corrector
	Reporter   *reports.Reporter
	Workflow   *Workflow
}

func NewBudgetRepository(s models.Store, resolver *repetitions.Resolver, locker utils.Locker) *BudgetRepository {
	if resolver == nil {
		resolver = repetitions.NewResolver()
	}
	reporter := reports.NewReporter(s, s, resolver)
	return &BudgetRepository{
		Resolver:   resolver,
		Aggregator: reporter.Aggregator,
		Corrector:  balances.NewCorrector(reporter.Aggregator, s),
		Reporter:   reporter,
		Workflow:   NewWorkflow(s, resolver, locker),
	}
}

// DefaultBudgetRepository runs on the configured database and, when enabled, Redis locks.
func DefaultBudgetRepository() *BudgetRepository {
	return NewBudgetRepository(store.DefaultGormStore(), nil, utils.DefaultLocker())
}

/* periods */

func (r *BudgetRepository) Buckets(start, end time.Time, g periods.Granularity) ([]periods.Bucket, error) {
	return periods.BuildBuckets(start, end, g)
}

/* repetitions */

func (r *BudgetRepository) LimitRepetitions(budget *models.Budget, start, end time.Time) ([]models.LimitRepetition, error) {
	return r.Resolver.InRange(budget, start, end)
}

func (r *BudgetRepository) AllLimitRepetitions(budget *models.Budget) ([]models.LimitRepetition, error) {
	return r.Resolver.All(budget)
}

func (r *BudgetRepository) CurrentRepetition(budget *models.Budget, start, end time.Time) (*models.LimitRepetition, error) {
	return r.Resolver.Current(budget, start, end)
}

func (r *BudgetRepository) LimitRepetition(budget *models.Budget, id string) (models.LimitRepetition, error) {
	return r.Resolver.ByID(budget, id)
}

func (r *BudgetRepository) FirstLimitDate(budget *models.Budget) (time.Time, bool) {
	return r.Resolver.FirstLimitDate(budget)
}

// Deprecated: use CurrentRepetition or LimitRepetitions.
func (r *BudgetRepository) LastLimitDate(budget *models.Budget) (time.Time, bool) {
	return r.Resolver.LastLimitDate(budget)
}

// Deprecated: use CurrentRepetition.
func (r *BudgetRepository) LimitAmountOnDate(budget *models.Budget, date time.Time) (decimal.Decimal, bool) {
	return r.Resolver.LimitAmountOnDate(budget, date)
}

/* expenses */

func (r *BudgetRepository) ExpensesPerBucket(ctx context.Context, budget *models.Budget, start, end time.Time, g periods.Granularity, accounts []int) ([]models.PeriodAmount, error) {
	return r.Aggregator.ExpensesPerBucket(ctx, budget, start, end, g, accounts)
}

func (r *BudgetRepository) ExpensesPerDay(ctx context.Context, budget *models.Budget, start, end time.Time) ([]models.PeriodAmount, error) {
	return r.Aggregator.ExpensesPerDay(ctx, budget, start, end)
}

func (r *BudgetRepository) SpentPerDay(ctx context.Context, budget *models.Budget, start, end time.Time) (map[string]decimal.Decimal, error) {
	return r.Aggregator.SpentPerDay(ctx, budget, start, end)
}

func (r *BudgetRepository) SpentOnDate(ctx context.Context, budget *models.Budget, date time.Time) (decimal.Decimal, error) {
	return r.Aggregator.SpentOnDate(ctx, budget, date)
}

func (r *BudgetRepository) SpentPerRepetition(ctx context.Context, budget *models.Budget, start, end time.Time) ([]expenses.RepetitionAmount, error) {
	return r.Aggregator.SpentPerRepetition(ctx, budget, start, end)
}

func (r *BudgetRepository) FirstActivity(ctx context.Context, budget *models.Budget) (time.Time, bool, error) {
	return r.Aggregator.FirstActivity(ctx, budget)
}

func (r *BudgetRepository) JournalsForBudget(ctx context.Context, budget *models.Budget, rep *models.LimitRepetition, pageSize int, after *string) (*models.JournalPage, error) {
	return r.Aggregator.JournalsForBudget(ctx, budget, rep, pageSize, after)
}

/* balances */

func (r *BudgetRepository) BalanceInPeriod(ctx context.Context, budget *models.Budget, start, end time.Time, accounts []int) (decimal.Decimal, error) {
	return r.Corrector.BalanceInPeriod(ctx, budget, start, end, accounts)
}

func (r *BudgetRepository) InternalTransfers(ctx context.Context, budget *models.Budget, start, end time.Time, accounts []int) ([]*models.Journal, error) {
	return r.Corrector.InternalTransfers(ctx, budget, start, end, accounts)
}

/* reports */

func (r *BudgetRepository) ExpensesPerMonth(ctx context.Context, budgets []*models.Budget, accounts []int, start, end time.Time) ([]reports.BudgetSeries, error) {
	return r.Reporter.ExpensesPerMonth(ctx, budgets, accounts, start, end)
}

func (r *BudgetRepository) ExpensesPerYear(ctx context.Context, budgets []*models.Budget, accounts []int, start, end time.Time) ([]reports.BudgetSeries, error) {
	return r.Reporter.ExpensesPerYear(ctx, budgets, accounts, start, end)
}

func (r *BudgetRepository) BudgetedPerYear(ctx context.Context, budgets []*models.Budget, start, end time.Time) ([]reports.BudgetSeries, error) {
	return r.Reporter.BudgetedPerYear(ctx, budgets, start, end)
}

func (r *BudgetRepository) WithoutBudget(ctx context.Context, start, end time.Time) ([]*models.Journal, error) {
	return r.Reporter.WithoutBudget(ctx, start, end)
}

func (r *BudgetRepository) WithoutBudgetSum(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	return r.Reporter.WithoutBudgetSum(ctx, start, end)
}

func (r *BudgetRepository) TotalExpenses(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	return r.Reporter.TotalExpenses(ctx, start, end)
}

func (r *BudgetRepository) Budgets(ctx context.Context) ([]*models.Budget, error) {
	return r.Reporter.Budgets(ctx)
}

func (r *BudgetRepository) ActiveBudgets(ctx context.Context) ([]*models.Budget, error) {
	return r.Reporter.ActiveBudgets(ctx)
}

func (r *BudgetRepository) InactiveBudgets(ctx context.Context) ([]*models.Budget, error) {
	return r.Reporter.InactiveBudgets(ctx)
}

func (r *BudgetRepository) BudgetsAndLimitsInRange(ctx context.Context, start, end time.Time) ([]reports.BudgetRepetitions, error) {
	return r.Reporter.BudgetsAndLimitsInRange(ctx, start, end)
}

func (r *BudgetRepository) ExportExcel(w io.Writer, title string, series []reports.BudgetSeries) error {
	return reports.ExportExcel(w, title, series)
}

/* administration */

func (r *BudgetRepository) FindBudget(ctx context.Context, id int) (*models.Budget, error) {
	return r.Workflow.ownedBudget(ctx, id)
}

func (r *BudgetRepository) StoreBudget(ctx context.Context, input *models.NewBudget) (*models.Budget, error) {
	return r.Workflow.StoreBudget(ctx, input)
}

func (r *BudgetRepository) UpdateBudget(ctx context.Context, id int, input *models.NewBudget) (*models.Budget, error) {
	return r.Workflow.UpdateBudget(ctx, id, input)
}

func (r *BudgetRepository) DestroyBudget(ctx context.Context, id int) error {
	return r.Workflow.DestroyBudget(ctx, id)
}

func (r *BudgetRepository) StoreLimit(ctx context.Context, budgetId int, input *models.NewBudgetLimit) (*models.BudgetLimit, error) {
	return r.Workflow.StoreLimit(ctx, budgetId, input)
}

func (r *BudgetRepository) UpdateLimitAmount(ctx context.Context, budget *models.Budget, date time.Time, amount decimal.Decimal) (*models.BudgetLimit, error) {
	return r.Workflow.UpdateLimitAmount(ctx, budget, date, amount)
}

func (r *BudgetRepository) BudgetLimits(ctx context.Context, budget *models.Budget) ([]*models.BudgetLimit, error) {
	return r.Workflow.BudgetLimits(ctx, budget)
}

func (r *BudgetRepository) CleanupBudgets(ctx context.Context) (*CleanupResult, error) {
	return r.Workflow.CleanupBudgets(ctx)
}

func (r *BudgetRepository) PlanCleanup(ctx context.Context) (*CleanupResult, error) {
	return r.Workflow.PlanCleanup(ctx)
}
