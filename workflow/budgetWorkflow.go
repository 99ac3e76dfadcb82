package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/models/reports"
	"bitbucket.org/mmdatafocus/budgets_backend/repetitions"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"github.com/sirupsen/logrus"
)

const moduleName = "budgetWorkflow"

// Workflow holds the write side of budgets. Locker may be nil when the
// process is the only writer.
type Workflow struct {
	Budgets  models.BudgetStore
	Resolver *repetitions.Resolver
	Locker   utils.Locker
}

func NewWorkflow(budgets models.BudgetStore, resolver *repetitions.Resolver, locker utils.Locker) *Workflow {
	if resolver == nil {
		resolver = repetitions.NewResolver()
	}
	return &Workflow{Budgets: budgets, Resolver: resolver, Locker: locker}
}

func validateInput(input any) error {
	fields, err := utils.ValidateStruct(input)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

func tagsFor(userId int, names []string) []models.Tag {
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		if n := models.NormalizeTag(name); n != "" {
			normalized = append(normalized, n)
		}
	}
	tags := make([]models.Tag, 0, len(normalized))
	for _, name := range utils.UniqueSlice(normalized) {
		tags = append(tags, models.Tag{UserId: userId, Name: name})
	}
	return tags
}

// ownedBudget loads the budget and hides budgets of other users.
// A context without a user acts as an administrator.
func (w *Workflow) ownedBudget(ctx context.Context, id int) (*models.Budget, error) {
	budget, err := w.Budgets.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok && userId > 0 && budget.UserId != userId {
		return nil, &models.NotFoundError{Resource: "budget", Id: id}
	}
	return budget, nil
}

// invalidateReports drops cached reports of userId and of the all-users view.
func invalidateReports(ctx context.Context, userId int) {
	for _, id := range utils.UniqueSlice([]int{userId, 0}) {
		if err := reports.BumpReportGeneration(ctx, id); err != nil {
			config.LogError(config.GetLogger(), moduleName, "invalidateReports", "bumping report generation", id, err)
		}
	}
}

func (w *Workflow) StoreBudget(ctx context.Context, input *models.NewBudget) (*models.Budget, error) {
	logger := config.GetLogger()
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, utils.ErrorUserIdRequired
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}
	budget := &models.Budget{
		UserId:   userId,
		Name:     input.Name,
		IsActive: isActive,
		Tags:     tagsFor(userId, input.Tags),
	}
	if err := w.Budgets.CreateBudget(ctx, budget); err != nil {
		config.LogError(logger, moduleName, "StoreBudget", "creating budget", input, err)
		return nil, fmt.Errorf("creating budget: %w", err)
	}
	invalidateReports(ctx, userId)
	config.LogInfo(logger, moduleName, "StoreBudget", "budget created", logrus.Fields{"budgetId": budget.ID, "userId": userId})
	return budget, nil
}

func (w *Workflow) UpdateBudget(ctx context.Context, id int, input *models.NewBudget) (*models.Budget, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	budget, err := w.ownedBudget(ctx, id)
	if err != nil {
		return nil, err
	}

	budget.Name = input.Name
	if input.IsActive != nil {
		budget.IsActive = input.IsActive
	}
	budget.Tags = tagsFor(budget.UserId, input.Tags)
	if err := w.Budgets.UpdateBudget(ctx, budget); err != nil {
		config.LogError(config.GetLogger(), moduleName, "UpdateBudget", "updating budget", input, err)
		return nil, fmt.Errorf("updating budget %d: %w", id, err)
	}
	invalidateReports(ctx, budget.UserId)
	return w.Budgets.GetBudget(ctx, id)
}

// DestroyBudget soft deletes the budget and removes its limits.
func (w *Workflow) DestroyBudget(ctx context.Context, id int) error {
	budget, err := w.ownedBudget(ctx, id)
	if err != nil {
		return err
	}
	unlock, err := utils.BudgetLock(ctx, w.Locker, id, moduleName, "DestroyBudget")
	if err != nil {
		return err
	}
	defer unlock()

	if err := w.Budgets.DeleteBudget(ctx, id); err != nil {
		config.LogError(config.GetLogger(), moduleName, "DestroyBudget", "deleting budget", id, err)
		return fmt.Errorf("deleting budget %d: %w", id, err)
	}
	invalidateReports(ctx, budget.UserId)
	config.LogInfo(config.GetLogger(), moduleName, "DestroyBudget", "budget deleted", logrus.Fields{"budgetId": id})
	return nil
}
