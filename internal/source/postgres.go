package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sales-kpi/internal/config"
	"sales-kpi/internal/dataset"
	"sales-kpi/internal/models"
)

const (
	poolMaxConns        = 4
	poolMinConns        = 1
	poolMaxConnLifetime = 30 * time.Minute
	poolMaxConnIdleTime = 5 * time.Minute
	poolHealthCheck     = 30 * time.Second
)

// Connect opens a small pool and verifies it with a ping.
func Connect(ctx context.Context, connString string, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	cfg.MaxConns = poolMaxConns
	cfg.MinConns = poolMinConns
	cfg.MaxConnLifetime = poolMaxConnLifetime
	cfg.MaxConnIdleTime = poolMaxConnIdleTime
	cfg.HealthCheckPeriod = poolHealthCheck

	logger.Debug("connecting to database",
		"host", cfg.ConnConfig.Host,
		"port", cfg.ConnConfig.Port,
		"database", cfg.ConnConfig.Database)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Postgres reads the table from a sales_transactions style table.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	pool, err := Connect(ctx, cfg.URL, logger)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool, table: cfg.Table}, nil
}

func (p *Postgres) Name() string { return config.SourcePostgres }

func (p *Postgres) Fetch(ctx context.Context) ([]models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT date, product_id, customer_id, region, channel,
		       sales_amount::float8, cost::float8, quantity
		FROM %s
		ORDER BY date, product_id, customer_id, region, channel, sales_amount, cost, quantity`, pgx.Identifier{p.table}.Sanitize())

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.table, err)
	}

	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		var tx models.Transaction
		err := row.Scan(&tx.Date, &tx.ProductID, &tx.CustomerID, &tx.Region, &tx.Channel,
			&tx.SalesAmount, &tx.Cost, &tx.Quantity)
		tx.Date = tx.Day()
		return tx, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.table, err)
	}
	if err := checkRows(txs); err != nil {
		return nil, fmt.Errorf("read %s: %w", p.table, err)
	}
	return txs, nil
}

// checkRows holds database rows to the same cell rules as decoded text.
func checkRows(txs []models.Transaction) error {
	for i, tx := range txs {
		if err := dataset.Validate(i+1, tx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Seed creates table if needed and bulk loads txs into it. It returns the
// number of rows copied.
func Seed(ctx context.Context, pool *pgxpool.Pool, table string, txs []models.Transaction) (int64, error) {
	ident := pgx.Identifier{table}
	_, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id           BIGSERIAL PRIMARY KEY,
			date         DATE NOT NULL,
			product_id   INTEGER NOT NULL,
			customer_id  INTEGER NOT NULL,
			region       TEXT NOT NULL,
			channel      TEXT NOT NULL,
			sales_amount NUMERIC(12,2) NOT NULL,
			cost         NUMERIC(12,2) NOT NULL,
			quantity     INTEGER NOT NULL
		)`, ident.Sanitize()))
	if err != nil {
		return 0, fmt.Errorf("create table %s: %w", table, err)
	}

	n, err := pool.CopyFrom(ctx, ident,
		[]string{"date", "product_id", "customer_id", "region", "channel", "sales_amount", "cost", "quantity"},
		pgx.CopyFromSlice(len(txs), func(i int) ([]any, error) {
			tx := txs[i]
			return []any{tx.Date, tx.ProductID, tx.CustomerID, tx.Region, tx.Channel, tx.SalesAmount, tx.Cost, tx.Quantity}, nil
		}))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}
