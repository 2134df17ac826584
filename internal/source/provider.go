// Package source loads the sales table from the configured upstream and keeps
// it cached between refreshes.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"sales-kpi/internal/config"
	"sales-kpi/internal/models"
)

// Provider fetches a complete, validated sales table.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Transaction, error)
}

// New builds the provider selected by cfg.Kind. With cfg.Fallback set, a
// non-synthetic provider is wrapped so failures are served from the
// synthetic generator instead, including a provider that could not be built.
func New(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (Provider, error) {
	synthetic := NewSynthetic(cfg.Synthetic)
	if cfg.Kind == config.SourceSynthetic {
		return synthetic, nil
	}

	primary, err := newPrimary(ctx, cfg, logger)
	if err != nil {
		if !cfg.Fallback {
			return nil, err
		}
		logger.Warn("source unavailable, serving synthetic data", "source", cfg.Kind, "error", err)
		primary = broken{name: cfg.Kind, err: err}
	}

	if !cfg.Fallback {
		return primary, nil
	}
	return NewFallback(primary, synthetic, logger), nil
}

func newPrimary(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Kind {
	case config.SourceCSV:
		return NewCSV(cfg.CSVFile), nil
	case config.SourceSheets:
		return NewSheets(ctx, cfg.Sheets)
	case config.SourceS3:
		return NewS3(ctx, cfg.S3)
	case config.SourcePostgres:
		return NewPostgres(ctx, cfg.Postgres, logger)
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", cfg.Kind)
	}
}

// Close releases resources held by p, if any.
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// broken stands in for a provider whose construction failed.
type broken struct {
	name string
	err  error
}

func (b broken) Name() string { return b.name }

func (b broken) Fetch(context.Context) ([]models.Transaction, error) {
	return nil, b.err
}
