package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type JournalStore interface {
	// FindJournals returns every journal matching filter, ordered by date then id.
	FindJournals(ctx context.Context, filter JournalFilter) ([]*Journal, error)
	// PageJournals returns up to limit journals matching filter in
	// (date DESC, id DESC) order, strictly after the keyset cursor.
	PageJournals(ctx context.Context, filter JournalFilter, limit int, after *string) ([]*Journal, *PageInfo, error)
}

type AccountStore interface {
	// GetAccounts returns one account per id, in the order of ids. Unknown ids
	// yield a placeholder that no user owns.
	GetAccounts(ctx context.Context, ids []int) ([]*Account, error)
}

type BudgetStore interface {
	GetBudget(ctx context.Context, id int) (*Budget, error)
	// ListBudgets returns the user's budgets (all users when userId is 0) with
	// limits and tags loaded, ordered by id.
	ListBudgets(ctx context.Context, userId int) ([]*Budget, error)
	CreateBudget(ctx context.Context, budget *Budget) error
	UpdateBudget(ctx context.Context, budget *Budget) error
	DeleteBudget(ctx context.Context, id int) error

	// ListLimits returns limits of the given budgets, or every limit when none are given.
	ListLimits(ctx context.Context, budgetIds ...int) ([]*BudgetLimit, error)
	// ListOrphanedLimits returns limits whose budget is deleted or missing.
	ListOrphanedLimits(ctx context.Context) ([]*BudgetLimit, error)
	CreateLimit(ctx context.Context, limit *BudgetLimit) error
	UpdateLimitAmount(ctx context.Context, limitId int, amount decimal.Decimal) (*BudgetLimit, error)
	DeleteLimits(ctx context.Context, ids ...int) error
}

// Clock returns the current instant. Engine components take one so tests can pin "now".
type Clock func() time.Time

// Store is everything the engine reads and writes. Both store implementations satisfy it.
type Store interface {
	BudgetStore
	JournalStore
	AccountStore
}
