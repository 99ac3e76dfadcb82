package reports

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/config"
	"bitbucket.org/mmdatafocus/budgets_backend/models"
)

// SeriesCache keeps report series between runs. Only reports derived from
// budgets and limits are cached; every limit write bumps the generation.
// Spending reports read journals and are never cached.
type SeriesCache interface {
	Generation(ctx context.Context, userId int) (int64, error)
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, obj any, ttl time.Duration) error
}

// RedisSeriesCache stores series as JSON through the shared Redis client.
type RedisSeriesCache struct{}

func (RedisSeriesCache) Generation(ctx context.Context, userId int) (int64, error) {
	return config.GetRedisCounter(ctx, reportGenerationKey(userId))
}

func (RedisSeriesCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return config.GetRedisObject(ctx, key, dest)
}

func (RedisSeriesCache) Set(ctx context.Context, key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(ctx, key, obj, ttl)
}

// DefaultSeriesCache is the Redis cache when ENABLE_REPORT_CACHE is set, nil otherwise.
func DefaultSeriesCache() SeriesCache {
	if !config.ReportCacheEnabled() {
		return nil
	}
	return RedisSeriesCache{}
}

func reportGenerationKey(userId int) string {
	return fmt.Sprintf("BudgetReportGen:%d", userId)
}

// BumpReportGeneration invalidates every cached report of userId.
func BumpReportGeneration(ctx context.Context, userId int) error {
	if !config.ReportCacheEnabled() {
		return nil
	}
	_, err := config.IncrRedisCounter(ctx, reportGenerationKey(userId))
	return err
}

func joinIds(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// reportCacheKey identifies a report run. Budgets of several users share the
// generation of the context user.
func reportCacheKey(name string, userId int, gen int64, budgets []*models.Budget, start, end time.Time) string {
	budgetIds := make([]int, len(budgets))
	for i, b := range budgets {
		budgetIds[i] = b.ID
	}
	return fmt.Sprintf("BudgetReport:%s:%d:%d:%s:%s:%s",
		name, userId, gen, joinIds(budgetIds),
		start.Format(time.DateOnly), end.Format(time.DateOnly))
}

// cachedSeries serves the report from the cache when one is set, computing
// and storing it on a miss. Cache failures fall back to computing.
func (r *Reporter) cachedSeries(ctx context.Context, name string, budgets []*models.Budget, start, end time.Time, compute func() ([]BudgetSeries, error)) ([]BudgetSeries, error) {
	if r.Cache == nil {
		return compute()
	}
	logger := config.GetLogger()
	userId := userIdFrom(ctx)
	gen, err := r.Cache.Generation(ctx, userId)
	if err != nil {
		config.LogError(logger, "reports", "cachedSeries", "reading generation", name, err)
		return compute()
	}
	key := reportCacheKey(name, userId, gen, budgets, start, end)

	var cached []BudgetSeries
	if ok, err := r.Cache.Get(ctx, key, &cached); err != nil {
		config.LogError(logger, "reports", "cachedSeries", "reading cache", key, err)
	} else if ok && len(cached) == len(budgets) {
		// hand back the caller's budget pointers
		for i := range cached {
			cached[i].Budget = budgets[i]
		}
		return cached, nil
	}

	series, err := compute()
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Set(ctx, key, series, config.ReportCacheTTL()); err != nil {
		config.LogError(logger, "reports", "cachedSeries", "writing cache", key, err)
	}
	return series, nil
}
