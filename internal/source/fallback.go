package source

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"sales-kpi/internal/models"
)

// Fallback serves the secondary provider whenever the primary fails.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    *slog.Logger

	count atomic.Int64

	mu       sync.Mutex
	origin   string
	fellBack bool
	lastErr  error
}

func NewFallback(primary, secondary Provider, logger *slog.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Name() string { return f.primary.Name() }

func (f *Fallback) Fetch(ctx context.Context) ([]models.Transaction, error) {
	txs, err := f.primary.Fetch(ctx)
	if err == nil {
		f.record(f.primary.Name(), false, nil)
		return txs, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return nil, err
	}

	f.logger.WarnContext(ctx, "primary source failed, using fallback",
		"source", f.primary.Name(),
		"fallback", f.secondary.Name(),
		"error", err)

	// A primary that used up the deadline must not take the fallback with it.
	sctx := ctx
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		sctx = context.WithoutCancel(ctx)
	}
	txs, ferr := f.secondary.Fetch(sctx)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	f.count.Add(1)
	f.record(f.secondary.Name(), true, err)
	return txs, nil
}

func (f *Fallback) record(origin string, fellBack bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.origin = origin
	f.fellBack = fellBack
	f.lastErr = err
}

// Origin reports which provider served the last successful fetch.
func (f *Fallback) Origin() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.origin, f.fellBack
}

// LastError is the primary failure behind the most recent fallback, or nil.
func (f *Fallback) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Count is the number of fetches served by the fallback since start.
func (f *Fallback) Count() int64 { return f.count.Load() }

// origin reports where p's last table came from.
func origin(p Provider) (string, bool) {
	if o, ok := p.(interface{ Origin() (string, bool) }); ok {
		if name, fellBack := o.Origin(); name != "" {
			return name, fellBack
		}
	}
	return p.Name(), false
}
