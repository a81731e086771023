package storage

import (
	"context"
	"fmt"

	"github.com/liftlog/liftlog/internal/config"
)

// Open connects the backend selected by cfg.Driver. PostgreSQL migrations
// are applied first; the SQLite schema is applied on open.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		dsn := cfg.DSN()
		if err := RunMigrations(dsn, cfg.Migrations); err != nil {
			return nil, err
		}
		db, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
