// Package migrations embeds the schema for every supported dialect and runs
// it with golang-migrate.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/calicode24/calicode/internal/config"
	"github.com/calicode24/calicode/internal/infra/db"
	"github.com/calicode24/calicode/internal/logger"
)

//go:embed postgres/*.sql mysql/*.sql sqlite/*.sql
var scripts embed.FS

// Runner applies the embedded migrations on its own connection; closing a
// migrate instance closes the pool it was given.
type Runner struct {
	cfg *config.Config
	log logger.Interface
}

func NewRunner(cfg *config.Config, log logger.Interface) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{cfg: cfg, log: log.Named("migrate")}
}

func (r *Runner) open(ctx context.Context) (*migrate.Migrate, error) {
	dialect := r.cfg.Database.Driver
	conn, err := db.Open(ctx, r.cfg)
	if err != nil {
		return nil, err
	}

	var driver database.Driver
	switch dialect {
	case "postgres":
		driver, err = migratepg.WithInstance(conn.DB, &migratepg.Config{})
	case "mysql":
		driver, err = migratemysql.WithInstance(conn.DB, &migratemysql.Config{})
	case "sqlite":
		driver, err = migratesqlite.WithInstance(conn.DB, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", dialect)
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(scripts, dialect)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Up applies all pending migrations
func (r *Runner) Up(ctx context.Context) error {
	m, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	to, _, _ := m.Version()
	r.log.Info("migrations applied", "driver", r.cfg.Database.Driver, "from_version", from, "to_version", to)
	return nil
}

// Down rolls back steps migrations; steps <= 0 rolls back everything.
func (r *Runner) Down(ctx context.Context, steps int) error {
	m, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	if steps <= 0 {
		err = m.Down()
	} else {
		err = m.Steps(-steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run down migrations: %w", err)
	}
	r.log.Info("migrations rolled back", "steps", steps)
	return nil
}

// Version reports the applied version. A fresh database is version 0.
func (r *Runner) Version(ctx context.Context) (uint, bool, error) {
	m, err := r.open(ctx)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
