// Package balances nets transfers between a user's own accounts out of
// budget spending.
package balances

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/expenses"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
	"bitbucket.org/mmdatafocus/budgets_backend/store"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"github.com/shopspring/decimal"
)

type Corrector struct {
	Aggregator *expenses.Aggregator
	Accounts   models.AccountStore
}

func NewCorrector(aggregator *expenses.Aggregator, accounts models.AccountStore) *Corrector {
	return &Corrector{Aggregator: aggregator, Accounts: accounts}
}

// BalanceInPeriod is the budget's outflow from accounts over [start, end]
// with internal transfers removed. Negative means money left the user.
func (c *Corrector) BalanceInPeriod(ctx context.Context, budget *models.Budget, start, end time.Time, accounts []int) (decimal.Decimal, error) {
	perDay, err := c.Aggregator.ExpensesPerBucket(ctx, budget, start, end, periods.Day, accounts)
	if err != nil {
		return decimal.Zero, err
	}
	raw := models.SumPeriodAmounts(perDay)

	internal, err := c.InternalTransfers(ctx, budget, start, end, accounts)
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Sub(models.SumAmounts(internal)), nil
}

// InternalTransfers returns the budget's outflows in range whose source and
// destination accounts both belong to the budget owner.
func (c *Corrector) InternalTransfers(ctx context.Context, budget *models.Budget, start, end time.Time, accounts []int) ([]*models.Journal, error) {
	journals, err := c.Aggregator.Outflows(ctx, budget, start, end, accounts)
	if err != nil {
		return nil, err
	}
	candidates := make([]*models.Journal, 0)
	ids := make([]int, 0)
	for _, j := range journals {
		if j.DestinationAccountId <= 0 {
			continue
		}
		candidates = append(candidates, j)
		ids = append(ids, j.SourceAccountId, j.DestinationAccountId)
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	// one batch per call, cached for the call only
	loader := store.NewAccountLoader(c.Accounts)
	ids = utils.SortedInts(ids)
	loaded, err := loader.GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	owned := make(map[int]bool, len(loaded))
	for _, a := range loaded {
		owned[a.ID] = a.OwnedBy(budget.UserId)
	}

	internal := make([]*models.Journal, 0, len(candidates))
	for _, j := range candidates {
		if owned[j.SourceAccountId] && owned[j.DestinationAccountId] {
			internal = append(internal, j)
		}
	}
	return internal, nil
}
