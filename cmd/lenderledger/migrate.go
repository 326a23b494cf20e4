package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibbank/lenderledger/internal/infrastructure/config"
	"github.com/bibbank/lenderledger/internal/infrastructure/postgres"
	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

func migrateCmd(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	migrator := func() (*pgutil.Migrator, error) {
		cfg, _ := setup()
		if cfg.Store != config.StorePostgres {
			return nil, fmt.Errorf("migrations need STORE=%s, got %q", config.StorePostgres, cfg.Store)
		}
		if cfg.DB.Password == "" {
			return nil, errors.New("DB_PASSWORD environment variable is required")
		}
		return postgres.NewMigrator(cfg.DB.Postgres(cfg.ServiceName).DSN()), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				if err := m.Down(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}
