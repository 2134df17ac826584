package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"sales-kpi/internal/kpi"
	"sales-kpi/internal/models"
	"sales-kpi/internal/observability"
	"sales-kpi/internal/source"
	"sales-kpi/internal/storage"
)

var ErrNoData = errors.New("no sales data loaded")

// Info describes the table behind the current report.
type Info struct {
	Source    string    `json:"source"`
	FellBack  bool      `json:"fell_back"`
	FetchedAt time.Time `json:"fetched_at"`
	Rows      int       `json:"rows"`
}

// Analytics holds the current table and its unfiltered report. Handlers read
// it concurrently while the refresher swaps in new snapshots.
type Analytics struct {
	cache  *source.Cache
	opts   []kpi.Option
	logger *slog.Logger

	refreshes atomic.Int64
	failures  atomic.Int64

	mu     sync.RWMutex
	loaded bool
	table  []models.Transaction
	report kpi.Report
	info   Info
}

func NewAnalytics(cache *source.Cache, logger *slog.Logger, opts ...kpi.Option) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		cache:  cache,
		opts:   opts,
		logger: logger,
	}
}

// SetData replaces the table directly, bypassing the source.
func (a *Analytics) SetData(txs []models.Transaction) {
	a.apply(&storage.Snapshot{Source: "memory", FetchedAt: time.Now(), Rows: txs})
}

// Load serves the cached table when it is still fresh.
func (a *Analytics) Load(ctx context.Context) error {
	return a.update(ctx, "analytics.load", a.cache.RefreshIfStale)
}

// Refresh re-fetches the table from the source and recomputes the report.
func (a *Analytics) Refresh(ctx context.Context) error {
	return a.update(ctx, "analytics.refresh", a.cache.Refresh)
}

func (a *Analytics) update(ctx context.Context, op string, fetch func(context.Context) (*storage.Snapshot, error)) error {
	if a.cache == nil {
		return errors.New("analytics has no source")
	}

	ctx, span := observability.StartSpan(ctx, op)
	defer func() {
		span.Finish()
		a.logger.DebugContext(ctx, "span finished", "span", span)
	}()

	a.refreshes.Add(1)
	snap, err := fetch(ctx)
	if err != nil {
		a.failures.Add(1)
		span.SetError(err)
		return err
	}

	start := time.Now()
	a.apply(snap)
	span.SetTag("source", snap.Source)
	span.SetTag("rows", strconv.Itoa(len(snap.Rows)))

	a.logger.InfoContext(ctx, "report computed",
		"source", snap.Source,
		"fell_back", snap.FellBack,
		"rows", len(snap.Rows),
		"duration", time.Since(start))
	return nil
}

func (a *Analytics) apply(snap *storage.Snapshot) {
	report := kpi.Compute(snap.Rows, a.opts...)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loaded = true
	a.table = snap.Rows
	a.report = report
	a.info = Info{
		Source:    snap.Source,
		FellBack:  snap.FellBack,
		FetchedAt: snap.FetchedAt,
		Rows:      len(snap.Rows),
	}
}

func (a *Analytics) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}

func (a *Analytics) Info() Info {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.info
}

// Report returns the unfiltered report of the current table.
func (a *Analytics) Report() kpi.Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report
}

// Compute returns the report of the rows matching f.
func (a *Analytics) Compute(f kpi.Filter) kpi.Report {
	if f.IsZero() {
		return a.Report()
	}
	return kpi.Compute(f.Apply(a.rows()), a.opts...)
}

// Distribution histograms sales amounts of the rows matching f.
func (a *Analytics) Distribution(f kpi.Filter, bins int) []kpi.Bin {
	return kpi.Histogram(f.Apply(a.rows()), bins)
}

func (a *Analytics) rows() []models.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table
}

// Start refreshes every interval until ctx is done. Each refresh is bounded
// by timeout when it is positive.
func (a *Analytics) Start(ctx context.Context, interval, timeout time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.refreshWithin(ctx, timeout)
			}
		}
	}()
}

func (a *Analytics) refreshWithin(ctx context.Context, timeout time.Duration) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := a.Refresh(ctx); err != nil {
		a.logger.Error("background refresh failed", "error", err)
	}
}

// Stats reports monitoring counters for /admin/stats.
func (a *Analytics) Stats() map[string]any {
	info := a.Info()
	report := a.Report()

	stats := map[string]any{
		"source":           info.Source,
		"fell_back":        info.FellBack,
		"record_count":     info.Rows,
		"last_fetched":     info.FetchedAt,
		"refreshes":        a.refreshes.Load(),
		"refresh_failures": a.failures.Load(),
		"customers":        report.Customers.UniqueCustomers,
		"products":         len(report.Products.Products),
		"days":             len(report.Revenue.Daily),
	}
	if a.cache != nil {
		stats["fetches"] = a.cache.Fetches()
		if fb, ok := a.cache.Provider().(*source.Fallback); ok {
			stats["fallbacks"] = fb.Count()
			if err := fb.LastError(); err != nil {
				stats["last_fallback_error"] = err.Error()
			}
		}
	}
	return stats
}
