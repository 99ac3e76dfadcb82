package expenses

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
	"bitbucket.org/mmdatafocus/budgets_backend/repetitions"
	"bitbucket.org/mmdatafocus/budgets_backend/store"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newGroceries(t *testing.T) (*store.MemoryStore, *models.Budget, *Aggregator) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	budget := &models.Budget{
		UserId:   7,
		Name:     "Groceries",
		IsActive: utils.NewTrue(),
		Tags:     []models.Tag{{UserId: 7, Name: "food"}},
		Limits: []models.BudgetLimit{
			{StartDate: day("2024-01-01"), Amount: amount("400.00"), RepeatFreq: models.RepeatFreqMonth, Repeats: true},
		},
	}
	if err := s.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	loaded, err := s.GetBudget(ctx, budget.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	resolver := &repetitions.Resolver{Now: func() time.Time { return day("2024-02-15") }}
	return s, loaded, NewAggregator(s, resolver)
}

func addJournal(s *store.MemoryStore, budget *models.Budget, date string, value string, source int) *models.Journal {
	j := &models.Journal{
		UserId:          7,
		JournalDate:     day(date),
		Amount:          amount(value),
		SourceAccountId: source,
	}
	if budget != nil {
		id := budget.ID
		j.BudgetId = &id
	}
	return s.AddJournal(j)
}

func TestExpensesPerBucket_GroceriesScenario(t *testing.T) {
	s, budget, agg := newGroceries(t)
	addJournal(s, budget, "2024-01-05", "-50.00", 1)
	addJournal(s, budget, "2024-02-03", "-30.00", 1)

	result, err := agg.ExpensesPerBucket(context.Background(), budget, day("2024-01-01"), day("2024-02-29"), periods.Month, nil)
	if err != nil {
		t.Fatalf("ExpensesPerBucket error: %v", err)
	}
	expected := []struct {
		label  string
		amount string
	}{
		{"2024-01", "-50.00"},
		{"2024-02", "-30.00"},
	}
	if len(result) != len(expected) {
		t.Fatalf("expected %d buckets, got %d", len(expected), len(result))
	}
	for i, e := range expected {
		if result[i].Label != e.label || !result[i].Amount.Equal(amount(e.amount)) {
			t.Fatalf("bucket %d expected (%s, %s), got (%s, %s)", i, e.label, e.amount, result[i].Label, result[i].Amount)
		}
	}
}

func TestExpensesPerBucket_IgnoresInflowsAndOtherBudgets(t *testing.T) {
	s, budget, agg := newGroceries(t)
	other := &models.Budget{ID: budget.ID + 100}
	addJournal(s, budget, "2024-01-05", "-50.00", 1)
	addJournal(s, budget, "2024-01-06", "20.00", 1)
	addJournal(s, other, "2024-01-07", "-99.00", 1)
	addJournal(s, nil, "2024-01-08", "-11.00", 1)

	result, err := agg.ExpensesPerBucket(context.Background(), budget, day("2024-01-01"), day("2024-01-31"), periods.Year, nil)
	if err != nil {
		t.Fatalf("ExpensesPerBucket error: %v", err)
	}
	if len(result) != 1 || result[0].Label != "2024" || !result[0].Amount.Equal(amount("-50")) {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestExpensesPerBucket_GranularityInvariantTotal(t *testing.T) {
	s, budget, agg := newGroceries(t)
	values := []struct{ date, amount string }{
		{"2023-12-31", "-1.10"},
		{"2024-01-01", "-2.20"},
		{"2024-01-31", "-3.30"},
		{"2024-02-29", "-4.40"},
		{"2024-07-14", "-5.55"},
		{"2024-12-31", "-6.01"},
		{"2025-01-01", "-7.00"},
	}
	for _, v := range values {
		addJournal(s, budget, v.date, v.amount, 1)
	}

	ranges := [][2]string{
		{"2024-01-01", "2024-12-31"},
		{"2023-12-15", "2024-03-03"},
		{"2024-01-31", "2024-01-31"},
		{"2023-01-01", "2025-06-30"},
	}
	ctx := context.Background()
	for _, r := range ranges {
		var totals []decimal.Decimal
		for _, g := range []periods.Granularity{periods.Day, periods.Month, periods.Year} {
			result, err := agg.ExpensesPerBucket(ctx, budget, day(r[0]), day(r[1]), g, nil)
			if err != nil {
				t.Fatalf("ExpensesPerBucket(%s..%s, %s) error: %v", r[0], r[1], g, err)
			}
			totals = append(totals, models.SumPeriodAmounts(result))
		}
		if !totals[0].Equal(totals[1]) || !totals[1].Equal(totals[2]) {
			t.Fatalf("range %s..%s totals differ: day=%s month=%s year=%s", r[0], r[1], totals[0], totals[1], totals[2])
		}
	}
}

func TestExpensesPerBucket_AccountFilterAndEmptyBuckets(t *testing.T) {
	s, budget, agg := newGroceries(t)
	addJournal(s, budget, "2024-01-05", "-50.00", 1)
	addJournal(s, budget, "2024-01-09", "-8.00", 2)

	result, err := agg.ExpensesPerBucket(context.Background(), budget, day("2024-01-04"), day("2024-01-10"), periods.Day, []int{2})
	if err != nil {
		t.Fatalf("ExpensesPerBucket error: %v", err)
	}
	if len(result) != 7 {
		t.Fatalf("expected 7 day buckets, got %d", len(result))
	}
	for _, r := range result {
		want := decimal.Zero
		if r.Label == "2024-01-09" {
			want = amount("-8")
		}
		if !r.Amount.Equal(want) {
			t.Fatalf("bucket %s expected %s, got %s", r.Label, want, r.Amount)
		}
	}
}

func TestExpensesPerBucket_InvalidRange(t *testing.T) {
	_, budget, agg := newGroceries(t)
	_, err := agg.ExpensesPerBucket(context.Background(), budget, day("2024-02-01"), day("2024-01-01"), periods.Month, nil)
	var rangeErr *models.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected InvalidRangeError, got %v", err)
	}
}

func TestSpentOnDate_AddsTaggedUnbudgetedOnce(t *testing.T) {
	s, budget, agg := newGroceries(t)
	addJournal(s, budget, "2024-03-02", "-10.00", 1)
	addJournal(s, nil, "2024-03-02", "-4.50", 1)
	s.AddJournal(&models.Journal{
		UserId: 7, JournalDate: day("2024-03-02"), Amount: amount("-2.25"), SourceAccountId: 1,
		Tags: []models.Tag{{Name: "Food"}, {Name: "FOOD "}},
	})
	s.AddJournal(&models.Journal{
		UserId: 7, JournalDate: day("2024-03-03"), Amount: amount("-100"), SourceAccountId: 1,
		Tags: []models.Tag{{Name: "food"}},
	})
	s.AddJournal(&models.Journal{
		UserId: 7, JournalDate: day("2024-03-02"), Amount: amount("-3"), SourceAccountId: 1,
		Tags: []models.Tag{{Name: "fuel"}},
	})

	spent, err := agg.SpentOnDate(context.Background(), budget, day("2024-03-02").Add(18*time.Hour))
	if err != nil {
		t.Fatalf("SpentOnDate error: %v", err)
	}
	if !spent.Equal(amount("-12.25")) {
		t.Fatalf("expected -12.25, got %s", spent)
	}
}

func TestSpentPerDayAndFirstActivity(t *testing.T) {
	s, budget, agg := newGroceries(t)
	ctx := context.Background()

	if _, ok, err := agg.FirstActivity(ctx, budget); err != nil || ok {
		t.Fatalf("expected no activity yet, got ok=%v err=%v", ok, err)
	}

	addJournal(s, budget, "2024-01-05", "-50.00", 1)
	addJournal(s, budget, "2024-01-05", "-5.00", 1)
	addJournal(s, budget, "2024-01-07", "-1.00", 1)

	spent, err := agg.SpentPerDay(ctx, budget, day("2024-01-01"), day("2024-01-31"))
	if err != nil {
		t.Fatalf("SpentPerDay error: %v", err)
	}
	if len(spent) != 2 || !spent["2024-01-05"].Equal(amount("-55")) {
		t.Fatalf("unexpected per day spend %v", spent)
	}

	first, ok, err := agg.FirstActivity(ctx, budget)
	if err != nil || !ok || !first.Equal(day("2024-01-05")) {
		t.Fatalf("expected first activity 2024-01-05, got %s ok=%v err=%v", first, ok, err)
	}
}

// overlapping: a monthly limit plus a one week limit starting mid-month
func withWeeklyOverlay(t *testing.T) (*store.MemoryStore, *models.Budget, *Aggregator) {
	t.Helper()
	s, budget, agg := newGroceries(t)
	ctx := context.Background()
	if err := s.CreateLimit(ctx, &models.BudgetLimit{
		BudgetId: budget.ID, StartDate: day("2024-01-15"), Amount: amount("50"),
		RepeatFreq: models.RepeatFreqWeek,
	}); err != nil {
		t.Fatalf("CreateLimit: %v", err)
	}
	loaded, err := s.GetBudget(ctx, budget.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	return s, loaded, agg
}

func TestSpentPerRepetition_NoDoubleAttribution(t *testing.T) {
	s, budget, agg := withWeeklyOverlay(t)
	addJournal(s, budget, "2024-01-10", "-10", 1)
	addJournal(s, budget, "2024-01-16", "-20", 1)
	addJournal(s, budget, "2024-01-25", "-40", 1)

	result, err := agg.SpentPerRepetition(context.Background(), budget, day("2024-01-01"), day("2024-01-31"))
	if err != nil {
		t.Fatalf("SpentPerRepetition error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 repetitions, got %d", len(result))
	}
	total := decimal.Zero
	for _, r := range result {
		total = total.Add(r.Spent)
		want := amount("-20")
		if r.Repetition.LimitId == budget.Limits[0].ID {
			want = amount("-50")
		}
		if !r.Spent.Equal(want) {
			t.Fatalf("repetition %s expected %s, got %s", r.Repetition.Id(), want, r.Spent)
		}
	}
	if !total.Equal(amount("-70")) {
		t.Fatalf("expected every journal counted once, total -70, got %s", total)
	}
}

func TestJournalsForBudget_PagesAndRespectsAttribution(t *testing.T) {
	s, budget, agg := withWeeklyOverlay(t)
	ctx := context.Background()
	for _, d := range []string{"2024-01-02", "2024-01-10", "2024-01-16", "2024-01-18", "2024-01-25", "2024-01-30", "2024-02-02"} {
		addJournal(s, budget, d, "-1", 1)
	}

	all, err := agg.JournalsForBudget(ctx, budget, nil, 0, nil)
	if err != nil {
		t.Fatalf("JournalsForBudget error: %v", err)
	}
	if len(all.Journals) != 7 || *all.PageInfo.HasNextPage {
		t.Fatalf("expected all 7 journals on one default page, got %d", len(all.Journals))
	}

	reps, err := agg.Resolver.InRange(budget, day("2024-01-01"), day("2024-01-01"))
	if err != nil || len(reps) != 1 {
		t.Fatalf("expected the January repetition, got %v (err=%v)", reps, err)
	}
	monthly := reps[0]

	var dates []string
	var after *string
	for {
		page, err := agg.JournalsForBudget(ctx, budget, &monthly, 2, after)
		if err != nil {
			t.Fatalf("JournalsForBudget error: %v", err)
		}
		for _, j := range page.Journals {
			dates = append(dates, j.JournalDate.Format(time.DateOnly))
		}
		if !*page.PageInfo.HasNextPage {
			break
		}
		cursor := page.PageInfo.EndCursor
		after = &cursor
	}
	expected := []string{"2024-01-30", "2024-01-25", "2024-01-10", "2024-01-02"}
	if len(dates) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, dates)
	}
	for i := range expected {
		if dates[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, dates)
		}
	}
}

func TestJournalsForBudget_UnknownRepetition(t *testing.T) {
	_, budget, agg := newGroceries(t)
	rep := &models.LimitRepetition{LimitId: 999, Cycle: 0}
	_, err := agg.JournalsForBudget(context.Background(), budget, rep, 10, nil)
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExpensesPerBucket_OffsetJournalNearMidnight(t *testing.T) {
	s, budget, agg := newGroceries(t)
	ctx := context.Background()
	est := time.FixedZone("EST", -5*3600)
	// 23:30 EST on Jan 31 is Feb 1 in UTC
	id := budget.ID
	s.AddJournal(&models.Journal{
		UserId:          7,
		JournalDate:     time.Date(2024, 1, 31, 23, 30, 0, 0, est),
		Amount:          amount("-40.00"),
		SourceAccountId: 1,
		BudgetId:        &id,
	})
	start, end := day("2024-02-01"), day("2024-02-29")

	outflows, err := agg.Outflows(ctx, budget, start, end, nil)
	if err != nil {
		t.Fatalf("Outflows error: %v", err)
	}
	if got := models.SumAmounts(outflows); !got.Equal(amount("-40")) {
		t.Fatalf("expected outflows of -40, got %s", got)
	}
	for _, g := range []periods.Granularity{periods.Day, periods.Month, periods.Year} {
		buckets, err := agg.ExpensesPerBucket(ctx, budget, start, end, g, nil)
		if err != nil {
			t.Fatalf("ExpensesPerBucket(%s) error: %v", g, err)
		}
		if got := models.SumPeriodAmounts(buckets); !got.Equal(amount("-40")) {
			t.Fatalf("%s buckets: expected total -40, got %s", g, got)
		}
	}

	spent, err := agg.SpentPerDay(ctx, budget, start, end)
	if err != nil {
		t.Fatalf("SpentPerDay error: %v", err)
	}
	if !spent["2024-02-01"].Equal(amount("-40")) || len(spent) != 1 {
		t.Fatalf("expected -40 on 2024-02-01, got %v", spent)
	}

	perRep, err := agg.SpentPerRepetition(ctx, budget, start, end)
	if err != nil {
		t.Fatalf("SpentPerRepetition error: %v", err)
	}
	found := false
	for _, ra := range perRep {
		want := decimal.Zero
		if ra.Repetition.StartDate.Equal(day("2024-02-01")) {
			want = amount("-40")
			found = true
		}
		if !ra.Spent.Equal(want) {
			t.Fatalf("repetition %s: expected %s, got %s", ra.Repetition.Id(), want, ra.Spent)
		}
	}
	if !found {
		t.Fatalf("expected a February repetition, got %+v", perRep)
	}
}
