package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sales-kpi/internal/dataset"
	"sales-kpi/internal/source"
)

type generateOptions struct {
	rows     int
	seed     int64
	days     int
	out      string
	postgres string
	table    string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic sales table",
		Long: `Generate the same synthetic sales table the dashboard falls back to
and write it as CSV, or load it into a PostgreSQL table.

Example:
  kpidash generate --rows 5000 --out sales.csv
  kpidash generate --postgres "postgres://localhost/sales"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			synth := root.cfg.Source.Synthetic
			if !cmd.Flags().Changed("rows") {
				opts.rows = synth.Rows
			}
			if !cmd.Flags().Changed("seed") {
				opts.seed = synth.Seed
			}
			if !cmd.Flags().Changed("days") {
				opts.days = synth.Days
			}
			if !cmd.Flags().Changed("table") {
				opts.table = root.cfg.Source.Postgres.Table
			}
			return runGenerate(cmd, root, opts)
		},
	}

	cmd.Flags().IntVar(&opts.rows, "rows", 1000, "number of transactions")
	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "random seed")
	cmd.Flags().IntVar(&opts.days, "days", 365, "days of history ending today")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "-", "CSV file to write, - for stdout")
	cmd.Flags().StringVar(&opts.postgres, "postgres", "", "PostgreSQL connection string to load the table into instead")
	cmd.Flags().StringVar(&opts.table, "table", "sales_transactions", "PostgreSQL table name")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	if opts.rows < 1 || opts.days < 1 {
		return fmt.Errorf("rows and days must be positive, got %d and %d", opts.rows, opts.days)
	}
	txs := source.Generate(opts.rows, opts.seed, opts.days, time.Now())

	if opts.postgres != "" {
		ctx := cmd.Context()
		pool, err := source.Connect(ctx, opts.postgres, root.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		n, err := source.Seed(ctx, pool, opts.table, txs)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", opts.table, err)
		}
		root.logger.Info("generated sales table", "table", opts.table, "rows", n)
		return nil
	}

	if opts.out == "-" {
		return dataset.Encode(cmd.OutOrStdout(), txs)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := dataset.Encode(f, txs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	root.logger.Info("generated sales table", "file", opts.out, "rows", len(txs))
	return nil
}
