// Package expenses sums the outflows recorded against a budget into period
// buckets and limit repetitions.
package expenses

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
	"bitbucket.org/mmdatafocus/budgets_backend/repetitions"
	"github.com/shopspring/decimal"
)

// Aggregator reads journals from its store and never writes.
type Aggregator struct {
	Journals models.JournalStore
	Resolver *repetitions.Resolver
}

func NewAggregator(journals models.JournalStore, resolver *repetitions.Resolver) *Aggregator {
	if resolver == nil {
		resolver = repetitions.NewResolver()
	}
	return &Aggregator{Journals: journals, Resolver: resolver}
}

// Outflows returns the negative journals linked to budget on the inclusive
// days [start, end], optionally restricted to source accounts.
func (a *Aggregator) Outflows(ctx context.Context, budget *models.Budget, start, end time.Time, accounts []int) ([]*models.Journal, error) {
	start, end = periods.Date(start), periods.Date(end)
	if err := models.CheckRange(start, end); err != nil {
		return nil, err
	}
	return a.Journals.FindJournals(ctx, models.JournalFilter{
		BudgetIds:        []int{budget.ID},
		From:             start,
		Before:           end.AddDate(0, 0, 1),
		SourceAccountIds: accounts,
		OutflowOnly:      true,
	})
}

// ExpensesPerBucket sums the budget's outflows into every bucket of the range.
// Empty buckets are present with a zero amount.
func (a *Aggregator) ExpensesPerBucket(ctx context.Context, budget *models.Budget, start, end time.Time, g periods.Granularity, accounts []int) ([]models.PeriodAmount, error) {
	buckets, err := periods.BuildBuckets(start, end, g)
	if err != nil {
		return nil, err
	}
	journals, err := a.Outflows(ctx, budget, start, end, accounts)
	if err != nil {
		return nil, err
	}
	return Bucketize(buckets, g, journals), nil
}

// Bucketize sums journal amounts into buckets. Journals outside every bucket are ignored.
func Bucketize(buckets []periods.Bucket, g periods.Granularity, journals []*models.Journal) []models.PeriodAmount {
	results := make([]models.PeriodAmount, len(buckets))
	for i, b := range buckets {
		results[i] = models.PeriodAmount{
			Label:  periods.Label(b.Start, g),
			Start:  b.Start,
			End:    b.End,
			Amount: decimal.Zero,
		}
	}
	for _, j := range journals {
		d := periods.Date(j.JournalDate)
		i := sort.Search(len(buckets), func(i int) bool { return !buckets[i].End.Before(d) })
		if i < len(buckets) && buckets[i].Contains(d) {
			results[i].Amount = results[i].Amount.Add(j.Amount)
		}
	}
	return results
}

func (a *Aggregator) ExpensesPerDay(ctx context.Context, budget *models.Budget, start, end time.Time) ([]models.PeriodAmount, error) {
	return a.ExpensesPerBucket(ctx, budget, start, end, periods.Day, nil)
}

func (a *Aggregator) ExpensesPerMonth(ctx context.Context, budget *models.Budget, start, end time.Time) ([]models.PeriodAmount, error) {
	return a.ExpensesPerBucket(ctx, budget, start, end, periods.Month, nil)
}

// SpentPerDay maps each day with spending to its total, keyed 2006-01-02.
func (a *Aggregator) SpentPerDay(ctx context.Context, budget *models.Budget, start, end time.Time) (map[string]decimal.Decimal, error) {
	journals, err := a.Outflows(ctx, budget, start, end, nil)
	if err != nil {
		return nil, err
	}
	spent := make(map[string]decimal.Decimal)
	for _, j := range journals {
		key := periods.Label(periods.Date(j.JournalDate), periods.Day)
		spent[key] = spent[key].Add(j.Amount)
	}
	return spent, nil
}

// SpentOnDate is the budget's outflow on one day, plus unbudgeted outflows
// that carry one of the budget's tags. Each journal counts once.
func (a *Aggregator) SpentOnDate(ctx context.Context, budget *models.Budget, date time.Time) (decimal.Decimal, error) {
	date = periods.Date(date)
	linked, err := a.Outflows(ctx, budget, date, date, nil)
	if err != nil {
		return decimal.Zero, err
	}

	seen := make(map[int]bool, len(linked))
	total := decimal.Zero
	for _, j := range linked {
		seen[j.ID] = true
		total = total.Add(j.Amount)
	}

	tagNames := budget.TagNames()
	if len(tagNames) == 0 {
		return total, nil
	}
	tagged, err := a.Journals.FindJournals(ctx, models.JournalFilter{
		UserId:        budget.UserId,
		WithoutBudget: true,
		From:          date,
		Before:        date.AddDate(0, 0, 1),
		TagNames:      tagNames,
		OutflowOnly:   true,
	})
	if err != nil {
		return decimal.Zero, err
	}
	for _, j := range tagged {
		if seen[j.ID] {
			continue
		}
		seen[j.ID] = true
		total = total.Add(j.Amount)
	}
	return total, nil
}

// FirstActivity is the date of the earliest journal linked to the budget.
func (a *Aggregator) FirstActivity(ctx context.Context, budget *models.Budget) (time.Time, bool, error) {
	journals, err := a.Journals.FindJournals(ctx, models.JournalFilter{BudgetIds: []int{budget.ID}})
	if err != nil {
		return time.Time{}, false, err
	}
	if len(journals) == 0 {
		return time.Time{}, false, nil
	}
	return periods.Date(journals[0].JournalDate), true, nil
}

type RepetitionAmount struct {
	Repetition models.LimitRepetition `json:"repetition"`
	Spent      decimal.Decimal        `json:"spent"`
}

// SpentPerRepetition sums outflows per repetition in [start, end]. A journal
// inside several overlapping windows counts only toward the one repetitions.Attribute picks.
func (a *Aggregator) SpentPerRepetition(ctx context.Context, budget *models.Budget, start, end time.Time) ([]RepetitionAmount, error) {
	reps, err := a.Resolver.InRange(budget, start, end)
	if err != nil {
		return nil, err
	}
	journals, err := a.Outflows(ctx, budget, start, end, nil)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(reps))
	results := make([]RepetitionAmount, len(reps))
	for i, rep := range reps {
		index[rep.Id()] = i
		results[i] = RepetitionAmount{Repetition: rep, Spent: decimal.Zero}
	}
	for _, j := range journals {
		rep, ok := repetitions.Attribute(reps, j.JournalDate)
		if !ok {
			continue
		}
		i := index[rep.Id()]
		results[i].Spent = results[i].Spent.Add(j.Amount)
	}
	return results, nil
}

// JournalsForBudget pages the budget's journals newest first. With rep set,
// only journals inside its window that are attributed to it are returned.
func (a *Aggregator) JournalsForBudget(ctx context.Context, budget *models.Budget, rep *models.LimitRepetition, pageSize int, after *string) (*models.JournalPage, error) {
	if pageSize <= 0 {
		pageSize = config.JournalPageSize()
	}
	filter := models.JournalFilter{BudgetIds: []int{budget.ID}}
	if rep == nil {
		journals, pageInfo, err := a.Journals.PageJournals(ctx, filter, pageSize, after)
		if err != nil {
			return nil, err
		}
		return &models.JournalPage{Journals: journals, PageInfo: *pageInfo}, nil
	}

	known, err := a.Resolver.ByID(budget, rep.Id())
	if err != nil {
		return nil, err
	}
	filter.From = known.StartDate
	filter.Before = known.EndDate

	overlapping, err := a.Resolver.InRange(budget, known.StartDate, known.EndDate.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	// collect one more than a page to learn whether another page exists
	nodes := make([]*models.Journal, 0, pageSize+1)
	cursor := after
	for len(nodes) <= pageSize {
		batch, pageInfo, err := a.Journals.PageJournals(ctx, filter, pageSize, cursor)
		if err != nil {
			return nil, err
		}
		for _, j := range batch {
			if owner, ok := repetitions.Attribute(overlapping, j.JournalDate); !ok || owner.Id() != known.Id() {
				continue
			}
			nodes = append(nodes, j)
			if len(nodes) > pageSize {
				break
			}
		}
		if len(batch) == 0 || pageInfo.HasNextPage == nil || !*pageInfo.HasNextPage {
			break
		}
		next := pageInfo.EndCursor
		cursor = &next
	}

	edges, pageInfo := models.ConnectNodes(nodes, pageSize)
	return &models.JournalPage{Journals: models.EdgeNodes(edges), PageInfo: *pageInfo}, nil
}
