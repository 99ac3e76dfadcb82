package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"github.com/bsm/redislock"
)

var ErrorLockNotObtained = errors.New("could not obtain lock")

// Locker hands out named exclusive locks. The returned release func is safe to call once.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// RedisLocker backs Locker with bsm/redislock.
type RedisLocker struct {
	Client *redislock.Client
}

func (l RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.Client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrorLockNotObtained
	} else if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// DefaultLocker returns the Redis locker when Redis is connected and limit
// locking is enabled, nil otherwise.
func DefaultLocker() Locker {
	if !config.LimitLockEnabled() {
		return nil
	}
	client := config.GetRedisLock()
	if client == nil {
		return nil
	}
	return RedisLocker{Client: client}
}

// BudgetLock serializes writers of one budget. A nil locker means the process
// is the only writer and the lock is skipped.
func BudgetLock(ctx context.Context, locker Locker, budgetId int, moduleName string, functionName string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	logger := config.GetLogger()
	lockKey := fmt.Sprintf("BudgetLimit:%d", budgetId)
	release, err := locker.Obtain(ctx, lockKey, 30*time.Second)
	if errors.Is(err, ErrorLockNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for budget", budgetId, err)
		return nil, err
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for budget", budgetId, err)
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			config.LogError(logger, moduleName, functionName, "Error releasing lock for budget", budgetId, err)
		}
	}, nil
}
