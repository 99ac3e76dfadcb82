package balances

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/expenses"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
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

const (
	checking = 1
	savings  = 2
	cash     = 3
	shop     = 50
	stranger = 60
)

func fixture(t *testing.T) (*store.MemoryStore, *models.Budget, *Corrector) {
	t.Helper()
	s := store.NewMemoryStore()
	s.AddAccount(&models.Account{ID: checking, UserId: 7, Name: "Checking", AccountType: models.AccountTypeAsset})
	s.AddAccount(&models.Account{ID: savings, UserId: 7, Name: "Savings", AccountType: models.AccountTypeAsset})
	s.AddAccount(&models.Account{ID: cash, UserId: 7, Name: "Wallet", AccountType: models.AccountTypeCash})
	s.AddAccount(&models.Account{ID: shop, UserId: 0, Name: "Supermarket", AccountType: models.AccountTypeExpense})
	s.AddAccount(&models.Account{ID: stranger, UserId: 8, Name: "Friend", AccountType: models.AccountTypeAsset})

	budget := &models.Budget{UserId: 7, Name: "Groceries", IsActive: utils.NewTrue()}
	if err := s.CreateBudget(context.Background(), budget); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	agg := expenses.NewAggregator(s, nil)
	return s, budget, NewCorrector(agg, s)
}

func add(s *store.MemoryStore, budget *models.Budget, date, value string, source, destination int) {
	id := budget.ID
	s.AddJournal(&models.Journal{
		UserId:               7,
		JournalDate:          day(date),
		Amount:               amount(value),
		SourceAccountId:      source,
		DestinationAccountId: destination,
		BudgetId:             &id,
	})
}

func TestBalanceInPeriod_InternalTransferNetsToZero(t *testing.T) {
	s, budget, c := fixture(t)
	add(s, budget, "2024-01-10", "-100.00", checking, savings)
	ctx := context.Background()

	raw, err := c.Aggregator.ExpensesPerBucket(ctx, budget, day("2024-01-01"), day("2024-01-31"), periods.Day, []int{checking, savings})
	if err != nil {
		t.Fatalf("ExpensesPerBucket error: %v", err)
	}
	if !models.SumPeriodAmounts(raw).Equal(amount("-100.00")) {
		t.Fatalf("expected raw -100.00, got %s", models.SumPeriodAmounts(raw))
	}

	balance, err := c.BalanceInPeriod(ctx, budget, day("2024-01-01"), day("2024-01-31"), []int{checking, savings})
	if err != nil {
		t.Fatalf("BalanceInPeriod error: %v", err)
	}
	if !balance.Equal(decimal.Zero) {
		t.Fatalf("expected 0.00, got %s", balance)
	}
}

func TestBalanceInPeriod_ExternalSpendKept(t *testing.T) {
	s, budget, c := fixture(t)
	add(s, budget, "2024-01-05", "-40.00", checking, shop)
	add(s, budget, "2024-01-06", "-15.00", cash, 0)
	add(s, budget, "2024-01-07", "-25.00", checking, stranger)
	add(s, budget, "2024-01-08", "-60.00", checking, cash)
	add(s, budget, "2024-01-09", "-7.00", checking, 404)

	balance, err := c.BalanceInPeriod(context.Background(), budget, day("2024-01-01"), day("2024-01-31"), nil)
	if err != nil {
		t.Fatalf("BalanceInPeriod error: %v", err)
	}
	if !balance.Equal(amount("-87.00")) {
		t.Fatalf("expected -87.00, got %s", balance)
	}
}

func TestBalanceInPeriod_PartitionedAccountsSumToUnion(t *testing.T) {
	s, budget, c := fixture(t)
	add(s, budget, "2024-01-05", "-40.00", checking, shop)
	add(s, budget, "2024-01-06", "-15.25", cash, 0)
	add(s, budget, "2024-02-07", "-25.00", savings, stranger)
	add(s, budget, "2024-03-01", "-3.33", cash, shop)

	ctx := context.Background()
	start, end := day("2024-01-01"), day("2024-03-31")
	partitions := [][2][]int{
		{{checking}, {savings, cash}},
		{{checking, savings}, {cash}},
		{{checking, savings, cash}, {}},
	}
	union, err := c.Aggregator.ExpensesPerBucket(ctx, budget, start, end, periods.Day, []int{checking, savings, cash})
	if err != nil {
		t.Fatalf("ExpensesPerBucket error: %v", err)
	}
	want := models.SumPeriodAmounts(union)

	for _, p := range partitions {
		total := decimal.Zero
		for _, accounts := range p {
			if len(accounts) == 0 {
				continue
			}
			b, err := c.BalanceInPeriod(ctx, budget, start, end, accounts)
			if err != nil {
				t.Fatalf("BalanceInPeriod error: %v", err)
			}
			total = total.Add(b)
		}
		if !total.Equal(want) {
			t.Fatalf("partition %v: expected %s, got %s", p, want, total)
		}
	}
}

func TestBalanceInPeriod_InvalidRange(t *testing.T) {
	_, budget, c := fixture(t)
	_, err := c.BalanceInPeriod(context.Background(), budget, day("2024-02-01"), day("2024-01-01"), nil)
	if _, ok := err.(*models.InvalidRangeError); !ok {
		t.Fatalf("expected InvalidRangeError, got %v", err)
	}
}
