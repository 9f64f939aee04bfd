package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"salestats/internal/cache"
	"salestats/internal/core"
	"salestats/internal/ports"
)

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute
)

// ListParams are the raw listing parameters. An empty Month selects
// core.DefaultListMonth; Page and PerPage below 1 select the defaults.
type ListParams struct {
	Month   string
	Search  string
	Page    int
	PerPage int
}

// QueryService answers the dashboard queries. Aggregates are cached per month
// because the store is read-only once seeded.
type QueryService struct {
	reader  ports.TransactionReader
	stats   *cache.LRUCache[core.Statistics]
	bars    *cache.LRUCache[core.Histogram]
	pies    *cache.LRUCache[core.CategoryBreakdown]
	manager *cache.Manager
}

type Option func(*options)

type options struct {
	cacheSize int
	cacheTTL  time.Duration
}

// WithCache sets the per-aggregate cache capacity and entry lifetime.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		if size > 0 {
			o.cacheSize = size
		}
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

func NewQueryService(reader ports.TransactionReader, opts ...Option) *QueryService {
	o := options{cacheSize: defaultCacheSize, cacheTTL: defaultCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}

	s := &QueryService{
		reader:  reader,
		stats:   cache.NewLRUCache[core.Statistics](o.cacheSize, o.cacheTTL),
		bars:    cache.NewLRUCache[core.Histogram](o.cacheSize, o.cacheTTL),
		pies:    cache.NewLRUCache[core.CategoryBreakdown](o.cacheSize, o.cacheTTL),
		manager: cache.NewManager(),
	}
	s.manager.Register(s.stats)
	s.manager.Register(s.bars)
	s.manager.Register(s.pies)
	s.manager.StartCleanup(o.cacheTTL)

	return s
}

// Close stops the cache cleanup routine.
func (s *QueryService) Close() {
	s.manager.Stop()
}

// ListTransactions returns one page of the month's transactions matching the search text.
func (s *QueryService) ListTransactions(ctx context.Context, p ListParams) ([]core.Transaction, error) {
	month := core.DefaultListMonth
	if p.Month != "" {
		m, err := core.ParseMonth(p.Month)
		if err != nil {
			return nil, err
		}
		month = m
	}

	filter := core.ListFilter{
		Month:      month,
		Search:     p.Search,
		Pagination: core.NewPagination(p.Page, p.PerPage),
	}

	rows, err := s.reader.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions (month=%s, page=%d): %w", month, filter.Page, err)
	}
	if rows == nil {
		rows = []core.Transaction{}
	}
	return rows, nil
}

// Statistics returns the month's sale total, row count and unsold count.
func (s *QueryService) Statistics(ctx context.Context, month string) (core.Statistics, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return core.Statistics{}, err
	}

	stats, hit, err := cache.GetOrLoad[core.Statistics](s.stats, m.Numeric(), func() (core.Statistics, error) {
		return s.reader.MonthStatistics(ctx, m)
	})
	if err != nil {
		return core.Statistics{}, fmt.Errorf("month statistics (month=%s): %w", m, err)
	}
	logCache(ctx, "statistics", m, hit)
	return stats, nil
}

// BarChart returns the month's price histogram.
func (s *QueryService) BarChart(ctx context.Context, month string) (core.Histogram, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	h, hit, err := cache.GetOrLoad[core.Histogram](s.bars, m.Numeric(), func() (core.Histogram, error) {
		prices, err := s.reader.MonthPrices(ctx, m)
		if err != nil {
			return nil, err
		}
		return core.NewHistogram(prices), nil
	})
	if err != nil {
		return nil, fmt.Errorf("bar chart (month=%s): %w", m, err)
	}
	logCache(ctx, "bar_chart", m, hit)

	out := make(core.Histogram, len(h))
	copy(out, h)
	return out, nil
}

// PieChart returns the month's row count per category.
func (s *QueryService) PieChart(ctx context.Context, month string) (core.CategoryBreakdown, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	b, hit, err := cache.GetOrLoad[core.CategoryBreakdown](s.pies, m.Numeric(), func() (core.CategoryBreakdown, error) {
		counts, err := s.reader.CategoryCounts(ctx, m)
		if err != nil {
			return nil, err
		}
		return core.NewCategoryBreakdown(counts), nil
	})
	if err != nil {
		return nil, fmt.Errorf("pie chart (month=%s): %w", m, err)
	}
	logCache(ctx, "pie_chart", m, hit)

	return maps.Clone(b), nil
}

func logCache(ctx context.Context, aggregate string, m core.Month, hit bool) {
	if hit {
		slog.DebugContext(ctx, "Aggregate cache hit", "aggregate", aggregate, "month", m.String())
		return
	}
	slog.DebugContext(ctx, "Aggregate cached", "aggregate", aggregate, "month", m.String())
}
