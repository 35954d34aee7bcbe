package registry

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator drives goose against the embedded migration set. It opens
// its own database/sql connection independent of the pgxpool Pool
// above, matching the teacher's split between a pooled driver for
// queries and a plain database/sql handle for schema migrations.
type Migrator struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMigrator opens dsn with the stdlib pgx driver for goose's
// database/sql-based API.
func NewMigrator(dsn string, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: open migration connection: %w", err)
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("registry: set dialect: %w", err)
	}
	return &Migrator{db: db, logger: logger}, nil
}

// Close closes the migration connection.
func (m *Migrator) Close() error { return m.db.Close() }

// Up applies every pending migration.
func (m *Migrator) Up() error {
	if err := goose.Up(m.db, "migrations"); err != nil {
		return fmt.Errorf("registry: migrate up: %w", err)
	}
	m.logger.Info("registry migrations applied")
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down() error {
	if err := goose.Down(m.db, "migrations"); err != nil {
		return fmt.Errorf("registry: migrate down: %w", err)
	}
	m.logger.Info("registry migration rolled back")
	return nil
}

// Status reports the current migration version.
func (m *Migrator) Status() (int64, error) {
	version, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("registry: migration status: %w", err)
	}
	return version, nil
}
