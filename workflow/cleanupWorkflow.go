package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"github.com/sirupsen/logrus"
)

type CleanupResult struct {
	ZeroAmount int `json:"zero_amount"`
	Orphaned   int `json:"orphaned"`
	Duplicates int `json:"duplicates"`
}

func (r CleanupResult) Total() int {
	return r.ZeroAmount + r.Orphaned + r.Duplicates
}

type limitKey struct {
	budgetId int
	start    string
	freq     models.RepeatFreq
}

// newer reports whether a should survive over b among duplicates.
func newer(a, b *models.BudgetLimit) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID > b.ID
}

// planCleanup picks the limits to delete. Each limit is counted once, in the
// order orphaned, zero amount, duplicate.
func planCleanup(limits, orphaned []*models.BudgetLimit) (ids []int, result CleanupResult) {
	doomed := make(map[int]bool)
	for _, l := range orphaned {
		if !doomed[l.ID] {
			doomed[l.ID] = true
			ids = append(ids, l.ID)
			result.Orphaned++
		}
	}
	for _, l := range limits {
		if !doomed[l.ID] && l.Amount.IsZero() {
			doomed[l.ID] = true
			ids = append(ids, l.ID)
			result.ZeroAmount++
		}
	}

	keep := make(map[limitKey]*models.BudgetLimit)
	for _, l := range limits {
		if doomed[l.ID] {
			continue
		}
		key := limitKey{budgetId: l.BudgetId, start: l.StartDate.Format(time.DateOnly), freq: l.RepeatFreq}
		kept, ok := keep[key]
		if !ok {
			keep[key] = l
			continue
		}
		loser := l
		if newer(l, kept) {
			keep[key], loser = l, kept
		}
		doomed[loser.ID] = true
		ids = append(ids, loser.ID)
		result.Duplicates++
	}
	return ids, result
}

// CleanupBudgets removes limits of deleted budgets, zero amount limits and
// duplicate (start, frequency) limits of a budget, keeping the most recently
// updated one.
func (w *Workflow) CleanupBudgets(ctx context.Context) (*CleanupResult, error) {
	logger := config.GetLogger()
	limits, ids, result, err := w.cleanupPlan(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := w.Budgets.DeleteLimits(ctx, ids...); err != nil {
			config.LogError(logger, moduleName, "CleanupBudgets", "deleting limits", ids, err)
			return nil, fmt.Errorf("deleting limits: %w", err)
		}
		w.invalidateLimitOwners(ctx, limits, ids)
	}
	config.LogInfo(logger, moduleName, "CleanupBudgets", "cleanup finished", logrus.Fields{
		"zeroAmount": result.ZeroAmount,
		"orphaned":   result.Orphaned,
		"duplicates": result.Duplicates,
	})
	return &result, nil
}

// PlanCleanup counts what CleanupBudgets would delete without deleting it.
func (w *Workflow) PlanCleanup(ctx context.Context) (*CleanupResult, error) {
	_, _, result, err := w.cleanupPlan(ctx)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (w *Workflow) cleanupPlan(ctx context.Context) ([]*models.BudgetLimit, []int, CleanupResult, error) {
	logger := config.GetLogger()
	limits, err := w.Budgets.ListLimits(ctx)
	if err != nil {
		config.LogError(logger, moduleName, "cleanupPlan", "listing limits", nil, err)
		return nil, nil, CleanupResult{}, fmt.Errorf("listing limits: %w", err)
	}
	orphaned, err := w.Budgets.ListOrphanedLimits(ctx)
	if err != nil {
		config.LogError(logger, moduleName, "cleanupPlan", "listing orphaned limits", nil, err)
		return nil, nil, CleanupResult{}, fmt.Errorf("listing orphaned limits: %w", err)
	}
	ids, result := planCleanup(limits, orphaned)
	return limits, ids, result, nil
}

// invalidateLimitOwners drops cached reports of users whose limits were deleted.
func (w *Workflow) invalidateLimitOwners(ctx context.Context, limits []*models.BudgetLimit, ids []int) {
	deleted := make(map[int]bool, len(ids))
	for _, id := range ids {
		deleted[id] = true
	}
	touched := make(map[int]bool)
	for _, l := range limits {
		if deleted[l.ID] {
			touched[l.BudgetId] = true
		}
	}
	budgets, err := w.Budgets.ListBudgets(ctx, 0)
	if err != nil {
		config.LogError(config.GetLogger(), moduleName, "invalidateLimitOwners", "listing budgets", nil, err)
		return
	}
	users := make(map[int]bool)
	for _, b := range budgets {
		if touched[b.ID] && !users[b.UserId] {
			users[b.UserId] = true
			invalidateReports(ctx, b.UserId)
		}
	}
}
