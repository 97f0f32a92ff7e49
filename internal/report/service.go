package report

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"digimart/internal/cache"
	"digimart/internal/core"
	"digimart/internal/dataset"
)

// Service builds reports over a loaded table. It is safe for concurrent use.
// Reports returned to concurrent or cached callers share memory and must be
// treated as read-only.
//
// The table itself is immutable; Replace swaps in a new one and bumps the
// generation so no report of the old table is served afterwards.
type Service struct {
	table      atomic.Pointer[dataset.Table]
	generation atomic.Uint64
	group      singleflight.Group
	cache      *cache.LRUCache[core.Report] // nil when caching is disabled
}

// Option configures a Service.
type Option func(*Service)

// WithCache keeps up to size reports for ttl. A size of zero disables it.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size > 0 && ttl > 0 {
			s.cache = cache.NewLRUCache[core.Report](size, ttl)
		}
	}
}

// NewService wraps table.
func NewService(table *dataset.Table, opts ...Option) *Service {
	s := &Service{}
	s.table.Store(table)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the current order table.
func (s *Service) Table() *dataset.Table { return s.table.Load() }

// Generation counts how many times the table has been replaced.
func (s *Service) Generation() uint64 { return s.generation.Load() }

// Replace swaps in a freshly loaded table and drops cached reports.
func (s *Service) Replace(table *dataset.Table) {
	s.table.Store(table)
	gen := s.generation.Add(1)
	purged := 0
	if s.cache != nil {
		purged = s.cache.Purge()
	}
	slog.Info("Order table replaced", "rows", table.Len(), "generation", gen, "purged_reports", purged)
}

// Cache returns the report cache, or nil when disabled.
func (s *Service) Cache() *cache.LRUCache[core.Report] { return s.cache }

// Years lists the years the year selector offers: every year in the table.
func (s *Service) Years() []int { return s.Table().Years() }

// DefaultParams covers the whole table and the first year that has data.
func (s *Service) DefaultParams() Params {
	r, _ := s.Table().FullRange()
	return Params{Range: r, Year: s.DefaultYear(r)}
}

// DefaultYear picks the first table year that r overlaps, falling back to
// the first table year.
func (s *Service) DefaultYear(r core.DateRange) int {
	years := s.Table().Years()
	if len(years) == 0 {
		return 0
	}
	for _, y := range years {
		if y >= r.Start.Year() && y <= r.End.Year() {
			return y
		}
	}
	return years[0]
}

// Report builds the report for p. Identical concurrent calls share one
// computation.
func (s *Service) Report(ctx context.Context, p Params) (core.Report, error) {
	if err := p.Range.Validate(); err != nil {
		return core.Report{}, err
	}
	table, gen := s.Table(), s.generation.Load()
	key := cacheKey(p, gen)
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Report cache hit", "range", p.Range.String(), "year", p.Year)
			return r, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		start := time.Now()
		r, err := Build(table, p)
		if err != nil {
			return core.Report{}, err
		}
		slog.DebugContext(ctx, "Report built",
			"range", p.Range.String(),
			"year", p.Year,
			"rows", r.Rows,
			"duration_ms", time.Since(start).Milliseconds())
		if s.cache != nil && gen == s.generation.Load() {
			s.cache.Set(key, r)
		}
		return r, nil
	})
	if err != nil {
		return core.Report{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Report computation shared", "range", p.Range.String(), "year", p.Year)
	}
	return v.(core.Report), nil
}

func cacheKey(p Params, gen uint64) string {
	return strconv.FormatUint(gen, 10) + ":" + p.Range.String() + "/" + strconv.Itoa(p.Year)
}
