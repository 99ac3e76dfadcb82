package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps budgets, limits, journals and accounts in process. It
// implements every store interface and is what the engine tests run against.
type MemoryStore struct {
	mu       sync.RWMutex
	budgets  map[int]*models.Budget
	limits   map[int]*models.BudgetLimit
	journals []*models.Journal
	accounts map[int]*models.Account
	nextId   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets:  map[int]*models.Budget{},
		limits:   map[int]*models.BudgetLimit{},
		accounts: map[int]*models.Account{},
	}
}

func (s *MemoryStore) id() int {
	s.nextId++
	return s.nextId
}

// AddAccount seeds an account. A zero ID is assigned.
func (s *MemoryStore) AddAccount(account *models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == 0 {
		account.ID = s.id()
	} else if account.ID > s.nextId {
		s.nextId = account.ID
	}
	cp := *account
	s.accounts[cp.ID] = &cp
	return account
}

// AddJournal appends a journal. A zero ID is assigned.
func (s *MemoryStore) AddJournal(journal *models.Journal) *models.Journal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if journal.ID == 0 {
		journal.ID = s.id()
	} else if journal.ID > s.nextId {
		s.nextId = journal.ID
	}
	cp := *journal
	cp.Tags = slices.Clone(journal.Tags)
	s.journals = append(s.journals, &cp)
	return journal
}

func (s *MemoryStore) FindJournals(ctx context.Context, filter models.JournalFilter) ([]*models.Journal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.Journal, 0)
	for _, j := range s.journals {
		if filter.Match(j) {
			cp := *j
			results = append(results, &cp)
		}
	}
	slices.SortFunc(results, func(a, b *models.Journal) int {
		if c := a.JournalDate.Compare(b.JournalDate); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return results, nil
}

func (s *MemoryStore) PageJournals(ctx context.Context, filter models.JournalFilter, limit int, after *string) ([]*models.Journal, *models.PageInfo, error) {
	cursorAt, cursorId, err := models.DecodeCompositeCursor(after)
	if err != nil {
		return nil, nil, err
	}
	all, err := s.FindJournals(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	slices.Reverse(all)

	nodes := make([]*models.Journal, 0, limit+1)
	for _, j := range all {
		if !models.IsAfterCursor(j, cursorAt, cursorId) {
			continue
		}
		nodes = append(nodes, j)
		if len(nodes) > limit {
			break
		}
	}
	edges, pageInfo := models.ConnectNodes(nodes, limit)
	return models.EdgeNodes(edges), pageInfo, nil
}

func (s *MemoryStore) GetAccounts(ctx context.Context, ids []int) ([]*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			results = append(results, *a)
		}
	}
	return alignById(results, ids), nil
}

func (s *MemoryStore) GetBudget(ctx context.Context, id int) (*models.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "Budget", Id: id}
	}
	return s.loaded(b), nil
}

func (s *MemoryStore) ListBudgets(ctx context.Context, userId int) ([]*models.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.budgets))
	for id, b := range s.budgets {
		if userId == 0 || b.UserId == userId {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	results := make([]*models.Budget, 0, len(ids))
	for _, id := range ids {
		results = append(results, s.loaded(s.budgets[id]))
	}
	return results, nil
}

// loaded copies a budget with its limits attached; caller holds the lock.
func (s *MemoryStore) loaded(b *models.Budget) *models.Budget {
	cp := *b
	cp.Tags = slices.Clone(b.Tags)
	cp.Limits = make([]models.BudgetLimit, 0)
	for _, l := range s.sortedLimits(b.ID) {
		cp.Limits = append(cp.Limits, *l)
	}
	return &cp
}

func (s *MemoryStore) sortedLimits(budgetIds ...int) []*models.BudgetLimit {
	results := make([]*models.BudgetLimit, 0)
	for _, l := range s.limits {
		if len(budgetIds) == 0 || slices.Contains(budgetIds, l.BudgetId) {
			cp := *l
			results = append(results, &cp)
		}
	}
	slices.SortFunc(results, func(a, b *models.BudgetLimit) int {
		if a.BudgetId != b.BudgetId {
			return a.BudgetId - b.BudgetId
		}
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return results
}

func (s *MemoryStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	budget.ID = s.id()
	if budget.IsActive == nil {
		budget.IsActive = utils.NewTrue()
	}
	for i := range budget.Tags {
		if budget.Tags[i].ID == 0 {
			budget.Tags[i].ID = s.id()
		}
	}
	cp := *budget
	cp.Limits = nil
	cp.Tags = slices.Clone(budget.Tags)
	s.budgets[cp.ID] = &cp
	for i := range budget.Limits {
		budget.Limits[i].BudgetId = budget.ID
		budget.Limits[i].ID = s.id()
		l := budget.Limits[i]
		s.limits[l.ID] = &l
	}
	return nil
}

func (s *MemoryStore) UpdateBudget(ctx context.Context, budget *models.Budget) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[budget.ID]
	if !ok {
		return &models.NotFoundError{Resource: "Budget", Id: budget.ID}
	}
	for i := range budget.Tags {
		if budget.Tags[i].ID == 0 {
			budget.Tags[i].ID = s.id()
		}
	}
	existing.Name = budget.Name
	existing.IsActive = budget.IsActive
	existing.Tags = slices.Clone(budget.Tags)
	return nil
}

func (s *MemoryStore) DeleteBudget(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return &models.NotFoundError{Resource: "Budget", Id: id}
	}
	delete(s.budgets, id)
	for lid, l := range s.limits {
		if l.BudgetId == id {
			delete(s.limits, lid)
		}
	}
	return nil
}

func (s *MemoryStore) ListLimits(ctx context.Context, budgetIds ...int) ([]*models.BudgetLimit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLimits(budgetIds...), nil
}

func (s *MemoryStore) ListOrphanedLimits(ctx context.Context) ([]*models.BudgetLimit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*models.BudgetLimit, 0)
	for _, l := range s.sortedLimits() {
		if _, ok := s.budgets[l.BudgetId]; !ok {
			results = append(results, l)
		}
	}
	return results, nil
}

// AddOrphanLimit stores a limit without checking its budget, the state
// CleanupBudgets repairs.
func (s *MemoryStore) AddOrphanLimit(limit *models.BudgetLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit.ID = s.id()
	cp := *limit
	s.limits[cp.ID] = &cp
}

func (s *MemoryStore) CreateLimit(ctx context.Context, limit *models.BudgetLimit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[limit.BudgetId]; !ok {
		return &models.NotFoundError{Resource: "Budget", Id: limit.BudgetId}
	}
	limit.ID = s.id()
	now := time.Now()
	if limit.CreatedAt.IsZero() {
		limit.CreatedAt = now
	}
	if limit.UpdatedAt.IsZero() {
		limit.UpdatedAt = now
	}
	cp := *limit
	s.limits[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateLimitAmount(ctx context.Context, limitId int, amount decimal.Decimal) (*models.BudgetLimit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limits[limitId]
	if !ok {
		return nil, &models.NotFoundError{Resource: "BudgetLimit", Id: limitId}
	}
	updated := *l
	updated.Amount = amount
	updated.UpdatedAt = time.Now()
	s.limits[limitId] = &updated
	cp := updated
	return &cp, nil
}

func (s *MemoryStore) DeleteLimits(ctx context.Context, ids ...int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.limits, id)
	}
	return nil
}
