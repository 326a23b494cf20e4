package postgres

import (
	"embed"

	pgutil "github.com/bibbank/lenderledger/pkg/postgres"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationsDir is the directory of the embedded migration files.
const MigrationsDir = "migrations"

// NewMigrator returns a migrator over the embedded schema.
func NewMigrator(dsn string) *pgutil.Migrator {
	return pgutil.NewMigrator(migrationFS, MigrationsDir, dsn)
}
