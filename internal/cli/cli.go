// Package cli implements the kpidash command-line interface.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"sales-kpi/internal/config"
	"sales-kpi/internal/observability"
	"sales-kpi/pkg/version"
)

// rootOptions holds the global flags and what initConfig resolves from them.
type rootOptions struct {
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "kpidash",
		Short: "Sales performance KPIs from a spreadsheet, a bucket or a database",
		Long: `kpidash loads a table of sales transactions, computes revenue,
profitability, product, customer and operational KPIs over it, and serves
them as an interactive dashboard and a JSON API.

When the configured source is unavailable the synthetic generator is used
instead, so the dashboard always has data to show.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "",
		"config file (default: ./kpidash.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newReportCmd(opts))
	rootCmd.AddCommand(newGenerateCmd(opts))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if o.logLevel != "" {
		cfg.Logger.Level = o.logLevel
	}

	// Logs go to stderr so reports can be piped.
	o.cfg = cfg
	o.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger)
	slog.SetDefault(o.logger)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Info())
		},
	}
}

func newConfigCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to a file",
		Long: `Write the built-in defaults to a YAML file that can then be edited,
for example to point the dashboard at a Google Sheet:

  kpidash config init --path kpidash.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			cmd.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "kpidash.yaml", "where to write the file")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}
