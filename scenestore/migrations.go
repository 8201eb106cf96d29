package scenestore

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrate creates or upgrades the snapshot schema and logs the version the
// database ends up at.
func (s *Store) Migrate(ctx context.Context) error {
	version, err := RunMigrations(ctx, s.Pool)
	if err != nil {
		return err
	}
	s.log.Info("snapshot schema ready", zap.Int64("version", version))
	return nil
}

// RunMigrations applies the embedded scene_snapshots migrations that the
// database has not seen yet and returns the resulting schema version.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("snapshot migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return 0, fmt.Errorf("migrate snapshot schema: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read snapshot schema version: %w", err)
	}
	return version, nil
}
