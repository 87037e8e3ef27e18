// Package db opens the configured SQL database.
package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/calicode24/calicode/internal/config"
	"github.com/calicode24/calicode/internal/infra/db/mysql"
	"github.com/calicode24/calicode/internal/infra/db/postgres"
	"github.com/calicode24/calicode/internal/infra/db/sqlite"
)

// Open connects to the database named by cfg.Database.Driver and applies the
// configured pool limits.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.DatabaseDSN()

	var (
		conn *sqlx.DB
		err  error
	)
	switch cfg.Database.Driver {
	case "postgres":
		conn, err = postgres.Connect(ctx, dsn)
	case "mysql":
		conn, err = mysql.Connect(ctx, dsn)
	case "sqlite":
		return sqlite.Connect(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Database.Driver, err)
	}

	if n := cfg.Database.MaxOpenConns; n > 0 {
		conn.SetMaxOpenConns(n)
	}
	if n := cfg.Database.MaxIdleConns; n > 0 {
		conn.SetMaxIdleConns(n)
	}
	if d := cfg.Database.ConnMaxLifetime; d > 0 {
		conn.SetConnMaxLifetime(d)
	}
	return conn, nil
}
