package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

// ApplyMigrations brings the schema up to the newest version found in dir
// and returns that version. Applied versions are tracked in
// schema_migrations, so running it twice is a no-op.
func ApplyMigrations(ctx context.Context, db *DB, dir string) (uint, error) {
	src, err := iofs.New(os.DirFS(dir), ".")
	if err != nil {
		return 0, fmt.Errorf("open migrations in %s: %w", dir, err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		return 0, fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	stop := context.AfterFunc(ctx, func() { m.GracefulStop <- true })
	defer stop()

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		db.logger.Info("schema already up to date")
	case err != nil:
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty, fix it by hand before migrating again", version)
	}

	db.logger.Info("schema migrated", "version", version)
	return version, nil
}
