package store

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStore reads and writes budgets, limits, journals and accounts through gorm.
// MySQL in production, SQLite for local runs and tests.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DefaultGormStore uses the connection opened by config.ConnectDatabaseWithRetry.
func DefaultGormStore() *GormStore {
	return NewGormStore(config.GetDB())
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFound(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.NotFoundError{Resource: resource, Id: id}
	}
	return err
}

/* journals */

func (s *GormStore) journalQuery(ctx context.Context, filter models.JournalFilter) *gorm.DB {
	dbCtx := s.db.WithContext(ctx).Model(&models.Journal{})

	if filter.UserId > 0 {
		dbCtx.Where("journals.user_id = ?", filter.UserId)
	}
	if filter.WithoutBudget {
		dbCtx.Where("(journals.budget_id IS NULL OR journals.budget_id = 0)")
	}
	if len(filter.BudgetIds) > 0 {
		dbCtx.Where("journals.budget_id IN ?", filter.BudgetIds)
	}
	if !filter.From.IsZero() {
		dbCtx.Where("journals.journal_date >= ?", filter.From)
	}
	if !filter.Before.IsZero() {
		dbCtx.Where("journals.journal_date < ?", filter.Before)
	}
	if len(filter.SourceAccountIds) > 0 {
		dbCtx.Where("journals.source_account_id IN ?", filter.SourceAccountIds)
	}
	if len(filter.TagNames) > 0 {
		names := make([]string, 0, len(filter.TagNames))
		for _, n := range filter.TagNames {
			names = append(names, models.NormalizeTag(n))
		}
		tagged := s.db.Table("journal_tags").
			Select("journal_tags.journal_id").
			Joins("JOIN tags ON tags.id = journal_tags.tag_id").
			Where("LOWER(tags.name) IN ?", names)
		dbCtx.Where("journals.id IN (?)", tagged)
	}
	if filter.OutflowOnly {
		dbCtx.Where("journals.amount < 0")
	}
	return dbCtx
}

func (s *GormStore) FindJournals(ctx context.Context, filter models.JournalFilter) ([]*models.Journal, error) {
	var journals []*models.Journal
	err := s.journalQuery(ctx, filter).
		Preload("Tags").
		Order("journals.journal_date, journals.id").
		Find(&journals).Error
	if err != nil {
		return nil, err
	}
	return journals, nil
}

func (s *GormStore) PageJournals(ctx context.Context, filter models.JournalFilter, limit int, after *string) ([]*models.Journal, *models.PageInfo, error) {
	dbCtx := s.journalQuery(ctx, filter).Preload("Tags")
	edges, pageInfo, err := fetchPageCompositeCursor[models.Journal](dbCtx, limit, after, "journals.journal_date", "journals.id")
	if err != nil {
		return nil, nil, err
	}
	return models.EdgeNodes(edges), pageInfo, nil
}

// fetch one page in (cursorColumn DESC, id DESC) order
func fetchPageCompositeCursor[T models.CompositeCursor](dbCtx *gorm.DB,
	limit int,
	after *string,
	cursorColumn string,
	idColumn string,
) ([]models.Edge[T], *models.PageInfo, error) {

	nodes := make([]*T, 0)

	// order
	dbCtx.Order(cursorColumn + " DESC, " + idColumn + " DESC")

	// filter
	cursorAt, cursorId, err := models.DecodeCompositeCursor(after)
	if err != nil {
		return nil, nil, err
	}
	if cursorId > 0 {
		dbCtx.Where(
			// [1] = column, [2] = id column
			fmt.Sprintf("(%[1]s < ? OR (%[1]s = ? AND %[2]s < ?))", cursorColumn, idColumn),
			cursorAt, cursorAt, cursorId)
	}

	// db query
	dbCtx.Limit(limit + 1)
	if err := dbCtx.Find(&nodes).Error; err != nil {
		return nil, nil, err
	}

	edges, pageInfo := models.ConnectNodes(nodes, limit)
	return edges, pageInfo, nil
}

/* accounts */

func (s *GormStore) GetAccounts(ctx context.Context, ids []int) ([]*models.Account, error) {
	var results []models.Account
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
			return nil, err
		}
	}
	return alignById(results, ids), nil
}

/* budgets */

func (s *GormStore) budgetQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Limits", func(db *gorm.DB) *gorm.DB {
			return db.Order("budget_limits.start_date, budget_limits.id")
		}).
		Preload("Tags")
}

func (s *GormStore) GetBudget(ctx context.Context, id int) (*models.Budget, error) {
	var budget models.Budget
	if err := s.budgetQuery(ctx).First(&budget, id).Error; err != nil {
		return nil, notFound(err, "Budget", id)
	}
	return &budget, nil
}

func (s *GormStore) ListBudgets(ctx context.Context, userId int) ([]*models.Budget, error) {
	dbCtx := s.budgetQuery(ctx)
	if userId > 0 {
		dbCtx = dbCtx.Where("user_id = ?", userId)
	}
	var budgets []*models.Budget
	if err := dbCtx.Order("id").Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

// resolveTags swaps tag names for stored tag rows of the budget owner.
func resolveTags(tx *gorm.DB, userId int, tags []models.Tag) ([]models.Tag, error) {
	resolved := make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		tag := models.Tag{UserId: userId, Name: t.Name}
		err := tx.Where("user_id = ? AND name = ?", userId, t.Name).FirstOrCreate(&tag).Error
		if isDuplicateKeyErr(err) {
			// another writer created the tag between our select and insert
			tag = models.Tag{}
			err = tx.Where("user_id = ? AND name = ?", userId, t.Name).First(&tag).Error
		}
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, tag)
	}
	return resolved, nil
}

func (s *GormStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, budget.UserId, budget.Tags)
		if err != nil {
			return err
		}
		budget.Tags = tags
		return tx.Create(budget).Error
	})
}

func (s *GormStore) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Budget
		if err := tx.First(&existing, budget.ID).Error; err != nil {
			return notFound(err, "Budget", budget.ID)
		}
		if err := tx.Model(&existing).Select("name", "is_active").Updates(models.Budget{
			Name:     budget.Name,
			IsActive: budget.IsActive,
		}).Error; err != nil {
			return err
		}
		tags, err := resolveTags(tx, existing.UserId, budget.Tags)
		if err != nil {
			return err
		}
		budget.Tags = tags
		return tx.Model(&existing).Association("Tags").Replace(tags)
	})
}

// DeleteBudget soft deletes the budget and removes its limits.
func (s *GormStore) DeleteBudget(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Budget{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &models.NotFoundError{Resource: "Budget", Id: id}
		}
		return tx.Where("budget_id = ?", id).Delete(&models.BudgetLimit{}).Error
	})
}

/* limits */

func (s *GormStore) ListLimits(ctx context.Context, budgetIds ...int) ([]*models.BudgetLimit, error) {
	dbCtx := s.db.WithContext(ctx)
	if len(budgetIds) > 0 {
		dbCtx = dbCtx.Where("budget_id IN ?", budgetIds)
	}
	var limits []*models.BudgetLimit
	if err := dbCtx.Order("budget_id, start_date, id").Find(&limits).Error; err != nil {
		return nil, err
	}
	return limits, nil
}

func (s *GormStore) ListOrphanedLimits(ctx context.Context) ([]*models.BudgetLimit, error) {
	live := s.db.Model(&models.Budget{}).Select("id")
	var limits []*models.BudgetLimit
	err := s.db.WithContext(ctx).
		Where("budget_id NOT IN (?)", live).
		Order("budget_id, start_date, id").
		Find(&limits).Error
	if err != nil {
		return nil, err
	}
	return limits, nil
}

func (s *GormStore) CreateLimit(ctx context.Context, limit *models.BudgetLimit) error {
	return s.db.WithContext(ctx).Create(limit).Error
}

// UpdateLimitAmount is a single row update, so readers see the old or the new amount.
func (s *GormStore) UpdateLimitAmount(ctx context.Context, limitId int, amount decimal.Decimal) (*models.BudgetLimit, error) {
	var limit models.BudgetLimit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&limit, limitId).Error; err != nil {
			return err
		}
		if err := tx.Model(&limit).Update("amount", amount).Error; err != nil {
			return err
		}
		limit.Amount = amount
		return nil
	})
	if err != nil {
		return nil, notFound(err, "BudgetLimit", limitId)
	}
	return &limit, nil
}

func (s *GormStore) DeleteLimits(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.BudgetLimit{}, ids).Error
}
