package reports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
)

type memorySeriesCache struct {
	gens    map[int]int64
	entries map[string][]byte
	gets    int
	sets    int
	failGet bool
}

func newMemorySeriesCache() *memorySeriesCache {
	return &memorySeriesCache{gens: map[int]int64{}, entries: map[string][]byte{}}
}

func (c *memorySeriesCache) Generation(ctx context.Context, userId int) (int64, error) {
	return c.gens[userId], nil
}

func (c *memorySeriesCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.gets++
	if c.failGet {
		return false, errors.New("connection refused")
	}
	b, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *memorySeriesCache) Set(ctx context.Context, key string, obj any, ttl time.Duration) error {
	c.sets++
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	c.entries[key] = b
	return nil
}

func budgetedFor(t *testing.T, h *household, budgets []*models.Budget) BudgetSeries {
	t.Helper()
	series, err := h.reporter.BudgetedPerYear(userCtx(), budgets, day("2024-01-01"), day("2024-12-31"))
	if err != nil {
		t.Fatalf("BudgetedPerYear error: %v", err)
	}
	if len(series) != 1 || series[0].Budget != budgets[0] {
		t.Fatalf("expected one series for the given budget, got %+v", series)
	}
	return series[0]
}

func TestReportCache_BudgetedPerYearHitsUntilGenerationBump(t *testing.T) {
	h := newHousehold(t)
	cache := newMemorySeriesCache()
	h.reporter.Cache = cache
	budgets := []*models.Budget{h.groceries}

	first := budgetedFor(t, h, budgets)
	if !first.Total().Equal(amount("1200")) {
		t.Fatalf("expected 1200 budgeted, got %s", first.Total())
	}
	if cache.sets != 1 {
		t.Fatalf("expected the miss to be stored once, got %d sets", cache.sets)
	}

	// a limit change that did not go through the workflow is not seen
	h.groceries.Limits[0].Amount = amount("150")
	second := budgetedFor(t, h, budgets)
	if !second.Total().Equal(amount("1200")) {
		t.Fatalf("expected cached 1200, got %s", second.Total())
	}
	if cache.sets != 1 {
		t.Fatalf("expected a hit, got %d sets", cache.sets)
	}

	cache.gens[7]++
	third := budgetedFor(t, h, budgets)
	if !third.Total().Equal(amount("1800")) {
		t.Fatalf("expected 1800 after the generation bump, got %s", third.Total())
	}
	if cache.sets != 2 {
		t.Fatalf("expected a second store after the bump, got %d sets", cache.sets)
	}
}

func TestReportCache_ExpensesAlwaysReadJournals(t *testing.T) {
	h := newHousehold(t)
	cache := newMemorySeriesCache()
	h.reporter.Cache = cache
	budgets := []*models.Budget{h.groceries}
	start, end := day("2024-01-01"), day("2024-01-31")

	h.spend(h.groceries, "2024-01-04", "-60.00")
	series, err := h.reporter.ExpensesPerMonth(userCtx(), budgets, nil, start, end)
	if err != nil {
		t.Fatalf("ExpensesPerMonth error: %v", err)
	}
	if !series[0].Total().Equal(amount("-60")) {
		t.Fatalf("expected -60, got %s", series[0].Total())
	}

	h.spend(h.groceries, "2024-01-09", "-15.50")
	series, err = h.reporter.ExpensesPerMonth(userCtx(), budgets, nil, start, end)
	if err != nil {
		t.Fatalf("ExpensesPerMonth error: %v", err)
	}
	if !series[0].Total().Equal(amount("-75.50")) {
		t.Fatalf("expected the new journal to count, got %s", series[0].Total())
	}
	yearly, err := h.reporter.ExpensesPerYear(userCtx(), budgets, nil, start, end)
	if err != nil {
		t.Fatalf("ExpensesPerYear error: %v", err)
	}
	if !yearly[0].Total().Equal(amount("-75.50")) {
		t.Fatalf("expected -75.50 per year, got %s", yearly[0].Total())
	}
	if cache.gets != 0 || cache.sets != 0 {
		t.Fatalf("expected spending reports to bypass the cache, got %d gets %d sets", cache.gets, cache.sets)
	}
}

func TestReportCache_ReadErrorFallsBackToCompute(t *testing.T) {
	h := newHousehold(t)
	cache := newMemorySeriesCache()
	cache.failGet = true
	h.reporter.Cache = cache

	series := budgetedFor(t, h, []*models.Budget{h.rent})
	if !series.Total().Equal(amount("10800")) {
		t.Fatalf("expected 10800 budgeted, got %s", series.Total())
	}
}

func TestReportCacheKey_SeparatesUsersAndGenerations(t *testing.T) {
	budgets := []*models.Budget{{ID: 3}, {ID: 5}}
	start, end := day("2024-01-01"), day("2024-12-31")

	base := reportCacheKey("BudgetedPerYear", 7, 0, budgets, start, end)
	if base != "BudgetReport:BudgetedPerYear:7:0:3,5:2024-01-01:2024-12-31" {
		t.Fatalf("unexpected key %s", base)
	}
	if reportCacheKey("BudgetedPerYear", 8, 0, budgets, start, end) == base {
		t.Fatalf("expected users to get separate keys")
	}
	if reportCacheKey("BudgetedPerYear", 7, 1, budgets, start, end) == base {
		t.Fatalf("expected a new generation to change the key")
	}
}
