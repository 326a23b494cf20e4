// Command lenderledger runs the lender ledger service and its maintenance
// tasks.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibbank/lenderledger/internal/infrastructure/config"
	"github.com/bibbank/lenderledger/pkg/observability"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "lenderledger",
		Short:         "Loan and installment ledger for independent lenders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	// setup loads the configuration and installs the logger.
	setup := func() (config.Config, *slog.Logger) {
		cfg := config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger := observability.InitLogger(observability.LogConfig{
			Level:       cfg.LogLevel,
			Format:      cfg.LogFormat,
			ServiceName: cfg.ServiceName,
		})
		return cfg, logger
	}

	cmd.AddCommand(
		serveCmd(setup),
		accrueCmd(setup),
		migrateCmd(setup),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "lenderledger %s (commit %s)\n", version, commit)
			},
		},
	)
	return cmd
}

type setupFunc func() (config.Config, *slog.Logger)
