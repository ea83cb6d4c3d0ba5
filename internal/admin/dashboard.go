// ABOUTME: Admin statistics dashboard with concurrent, independently degrading widgets
// ABOUTME: Complete results are cached in go-cache for the configured TTL

package admin

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/2389/legisbot/internal/api"
)

const statsCacheKey = "dashboard"

// StatsBackend is what the dashboard needs from the backend client.
type StatsBackend interface {
	Demographics(ctx context.Context, groupBy string) ([]api.GroupCount, error)
	Usage(ctx context.Context) ([]api.DailyCount, error)
	TopQueries(ctx context.Context) ([]api.GroupCount, error)
}

// Widget is one dashboard panel. Available is false when its fetch failed.
type Widget[T any] struct {
	Data      []T
	Available bool
}

// Stats is the whole dashboard.
type Stats struct {
	ByCountry    Widget[api.GroupCount]
	ByOccupation Widget[api.GroupCount]
	Usage        Widget[api.DailyCount]
	TopQueries   Widget[api.GroupCount]
	FetchedAt    time.Time
}

// Complete reports whether every widget loaded.
func (s Stats) Complete() bool {
	return s.ByCountry.Available && s.ByOccupation.Available && s.Usage.Available && s.TopQueries.Available
}

// TotalQueries sums the usage series.
func (s Stats) TotalQueries() int {
	total := 0
	for _, d := range s.Usage.Data {
		total += d.Count
	}
	return total
}

// Dashboard loads admin statistics.
type Dashboard struct {
	backend StatsBackend
	cache   *cache.Cache
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboard creates a Dashboard caching complete results for ttl.
// A ttl of zero disables caching.
func NewDashboard(backend StatsBackend, ttl time.Duration, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &Dashboard{
		backend: backend,
		cache:   c,
		logger:  logger.Named("dashboard"),
		now:     time.Now,
	}
}

// Load returns the dashboard. It never fails; widgets that could not be
// fetched are marked unavailable.
func (d *Dashboard) Load(ctx context.Context) Stats {
	if d.cache != nil {
		if cached, ok := d.cache.Get(statsCacheKey); ok {
			return cached.(Stats)
		}
	}

	var stats Stats
	// Widgets degrade on their own, so no fetch reports an error to the group
	// and one failure never cancels the others.
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats.ByCountry = fetchWidget(ctx, d.logger, "demographics_country", func(ctx context.Context) ([]api.GroupCount, error) {
			return d.backend.Demographics(ctx, api.GroupByCountry)
		})
		return nil
	})
	g.Go(func() error {
		stats.ByOccupation = fetchWidget(ctx, d.logger, "demographics_occupation", func(ctx context.Context) ([]api.GroupCount, error) {
			return d.backend.Demographics(ctx, api.GroupByOccupation)
		})
		return nil
	})
	g.Go(func() error {
		stats.Usage = fetchWidget(ctx, d.logger, "usage", d.backend.Usage)
		return nil
	})
	g.Go(func() error {
		stats.TopQueries = fetchWidget(ctx, d.logger, "top_queries", d.backend.TopQueries)
		return nil
	})
	_ = g.Wait() // always nil

	stats.FetchedAt = d.now()
	if d.cache != nil && stats.Complete() {
		d.cache.SetDefault(statsCacheKey, stats)
	}
	return stats
}

// Invalidate drops the cached dashboard.
func (d *Dashboard) Invalidate() {
	if d.cache != nil {
		d.cache.Delete(statsCacheKey)
	}
}

func fetchWidget[T any](ctx context.Context, logger *zap.Logger, name string, fetch func(context.Context) ([]T, error)) Widget[T] {
	data, err := fetch(ctx)
	if err != nil {
		logger.Warn("stats widget unavailable", zap.String("widget", name), zap.Error(err))
		return Widget[T]{}
	}
	return Widget[T]{Data: data, Available: true}
}
