package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sales-kpi/internal/kpi"
	"sales-kpi/internal/report"
	"sales-kpi/internal/source"
	"sales-kpi/internal/storage"
)

type reportOptions struct {
	format   string
	regions  []string
	channels []string
	from     string
	to       string
	top      int
	noCache  bool
}

func newReportCmd(root *rootOptions) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the KPI report once",
		Long: `Load the sales table from the configured source and print every KPI,
optionally restricted to some regions, channels or a date range.

Example:
  kpidash report --region North,South --from 2024-01-01 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().StringSliceVar(&opts.regions, "region", nil, "only include these regions")
	cmd.Flags().StringSliceVar(&opts.channels, "channel", nil, "only include these channels")
	cmd.Flags().StringVar(&opts.from, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.top, "top", kpi.DefaultTopCustomers, "customers listed in the top customers table")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "fetch from the source even when a cached table is fresh")
	return cmd
}

func runReport(cmd *cobra.Command, root *rootOptions, opts *reportOptions) error {
	f, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	filter, err := kpi.ParseFilter(opts.regions, opts.channels, opts.from, opts.to)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cfg, logger := root.cfg, root.logger

	provider, err := source.New(ctx, cfg.Source, logger)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	defer source.Close(provider)

	store, err := storage.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache store: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Source.FetchTimeout)
	defer cancel()

	snap, err := source.NewCache(provider, cfg.Cache.TTL, store, logger).Get(fetchCtx, !opts.noCache)
	if err != nil {
		return fmt.Errorf("failed to load sales data: %w", err)
	}

	rows := filter.Apply(snap.Rows)
	return report.Write(cmd.OutOrStdout(), f, report.Document{
		Source:    snap.Source,
		FellBack:  snap.FellBack,
		FetchedAt: snap.FetchedAt,
		Rows:      len(rows),
		Filter:    filter.String(),
		Report:    kpi.Compute(rows, kpi.WithTopCustomers(opts.top)),
	})
}
