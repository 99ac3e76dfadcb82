package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/periods"
	"bitbucket.org/mmdatafocus/budgets_backend/repetitions"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// UpdateLimitAmount sets the amount of the limit whose repetition covers date.
// A zero amount deletes that limit and returns nil. When no repetition covers
// date, a one-off monthly limit is created from the first of date's month.
func (w *Workflow) UpdateLimitAmount(ctx context.Context, budget *models.Budget, date time.Time, amount decimal.Decimal) (*models.BudgetLimit, error) {
	logger := config.GetLogger()
	if amount.IsNegative() {
		return nil, &models.ValidationError{Fields: map[string]string{"Amount": "gte"}}
	}
	date = periods.Date(date)

	unlock, err := utils.BudgetLock(ctx, w.Locker, budget.ID, moduleName, "UpdateLimitAmount")
	if err != nil {
		return nil, err
	}
	defer unlock()

	// re-read under the lock, the caller's copy may be stale
	fresh, err := w.ownedBudget(ctx, budget.ID)
	if err != nil {
		return nil, err
	}
	reps, err := w.Resolver.InRange(fresh, date, date)
	if err != nil {
		return nil, err
	}
	fields := logrus.Fields{"budgetId": budget.ID, "date": date.Format(time.DateOnly), "amount": amount.String()}

	rep, ok := repetitions.Attribute(reps, date)
	switch {
	case ok && amount.IsZero():
		if err := w.Budgets.DeleteLimits(ctx, rep.LimitId); err != nil {
			config.LogError(logger, moduleName, "UpdateLimitAmount", "deleting limit", rep.LimitId, err)
			return nil, fmt.Errorf("deleting limit %d: %w", rep.LimitId, err)
		}
		fields["limitId"] = rep.LimitId
		config.LogInfo(logger, moduleName, "UpdateLimitAmount", "limit deleted", fields)
		invalidateReports(ctx, fresh.UserId)
		return nil, nil
	case ok:
		limit, err := w.Budgets.UpdateLimitAmount(ctx, rep.LimitId, amount)
		if err != nil {
			config.LogError(logger, moduleName, "UpdateLimitAmount", "updating limit", rep.LimitId, err)
			return nil, fmt.Errorf("updating limit %d: %w", rep.LimitId, err)
		}
		invalidateReports(ctx, fresh.UserId)
		return limit, nil
	case amount.IsZero():
		return nil, nil
	}

	limit := &models.BudgetLimit{
		BudgetId:   budget.ID,
		StartDate:  periods.StartOf(date, periods.Month),
		Amount:     amount,
		RepeatFreq: models.RepeatFreqMonth,
	}
	if err := w.Budgets.CreateLimit(ctx, limit); err != nil {
		config.LogError(logger, moduleName, "UpdateLimitAmount", "creating limit", fields, err)
		return nil, fmt.Errorf("creating limit: %w", err)
	}
	fields["limitId"] = limit.ID
	config.LogInfo(logger, moduleName, "UpdateLimitAmount", "limit created", fields)
	invalidateReports(ctx, fresh.UserId)
	return limit, nil
}

// StoreLimit adds a limit to the budget as given.
func (w *Workflow) StoreLimit(ctx context.Context, budgetId int, input *models.NewBudgetLimit) (*models.BudgetLimit, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Amount.IsNegative() {
		return nil, &models.ValidationError{Fields: map[string]string{"Amount": "gte"}}
	}
	unlock, err := utils.BudgetLock(ctx, w.Locker, budgetId, moduleName, "StoreLimit")
	if err != nil {
		return nil, err
	}
	defer unlock()

	budget, err := w.ownedBudget(ctx, budgetId)
	if err != nil {
		return nil, err
	}
	limit := &models.BudgetLimit{
		BudgetId:   budget.ID,
		StartDate:  periods.Date(input.StartDate),
		Amount:     input.Amount,
		RepeatFreq: input.RepeatFreq,
		Repeats:    input.Repeats,
	}
	if err := w.Budgets.CreateLimit(ctx, limit); err != nil {
		config.LogError(config.GetLogger(), moduleName, "StoreLimit", "creating limit", input, err)
		return nil, fmt.Errorf("creating limit: %w", err)
	}
	invalidateReports(ctx, budget.UserId)
	return limit, nil
}

// BudgetLimits returns the budget's stored limits ordered by start date.
func (w *Workflow) BudgetLimits(ctx context.Context, budget *models.Budget) ([]*models.BudgetLimit, error) {
	if _, err := w.ownedBudget(ctx, budget.ID); err != nil {
		return nil, err
	}
	return w.Budgets.ListLimits(ctx, budget.ID)
}
