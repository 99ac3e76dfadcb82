package store

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"github.com/graph-gophers/dataloader/v7"
)

// AccountLoader batches and caches account lookups for the lifetime of one
// report run. Create a new one per run; it never sees later account changes.
type AccountLoader struct {
	loader *dataloader.Loader[int, *models.Account]
}

func NewAccountLoader(accounts models.AccountStore) *AccountLoader {
	reader := &accountReader{store: accounts}
	return &AccountLoader{
		loader: dataloader.NewBatchedLoader(reader.getAccounts, dataloader.WithWait[int, *models.Account](time.Millisecond)),
	}
}

type accountReader struct {
	store models.AccountStore
}

func (r *accountReader) getAccounts(ctx context.Context, ids []int) []*dataloader.Result[*models.Account] {
	accounts, err := r.store.GetAccounts(ctx, ids)
	if err != nil {
		return handleError[*models.Account](len(ids), err)
	}
	if len(accounts) != len(ids) {
		return handleError[*models.Account](len(ids), errors.New("account store returned a misaligned batch"))
	}
	results := make([]*dataloader.Result[*models.Account], 0, len(ids))
	for _, a := range accounts {
		results = append(results, &dataloader.Result[*models.Account]{Data: a})
	}
	return results
}

func (l *AccountLoader) GetAccount(ctx context.Context, id int) (*models.Account, error) {
	return l.loader.Load(ctx, id)()
}

// GetAccounts implements models.AccountStore on top of the batch loader.
func (l *AccountLoader) GetAccounts(ctx context.Context, ids []int) ([]*models.Account, error) {
	accounts, errs := l.loader.LoadMany(ctx, ids)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return accounts, nil
}
