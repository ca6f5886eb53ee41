package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema. Every call opens its own
// connection because migrate.Close also closes the database handle.
type Migrator struct {
	dsn string
	log *slog.Logger
}

func NewMigrator(dsn string, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{dsn: dsn, log: log}
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	conn, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	driver, err := pgmigrate.WithInstance(conn, &pgmigrate.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("migrate source: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("migrate init: %w", err)
	}
	return mg, nil
}

func closeMigrate(mg *migrate.Migrate) {
	_, _ = mg.Close()
}

// Up applies pending migrations. No change is not an error.
func (m *Migrator) Up() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer closeMigrate(mg)

	err = mg.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("no migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	m.log.Info("migrations applied")
	return nil
}

// Reset drops every table in the database and re-applies the schema.
// Irreversible, not for production data.
func (m *Migrator) Reset() error {
	mg, err := m.open()
	if err != nil {
		return err
	}

	err = mg.Drop()
	closeMigrate(mg)
	if err != nil {
		return fmt.Errorf("migrate drop: %w", err)
	}

	m.log.Warn("database dropped")

	return m.Up()
}

// Down rolls back every migration.
func (m *Migrator) Down() error {
	mg, err := m.open()
	if err != nil {
		return err
	}
	defer closeMigrate(mg)

	err = mg.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version reports the applied schema version. A database without
// migrations reports 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	mg, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(mg)

	version, dirty, err = mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
