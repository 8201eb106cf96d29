package scenestore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plus3/tessera/config"
	"go.uber.org/zap"
)

const defaultConnectTimeout = 5 * time.Second

// Store keeps serialized scene snapshots in Postgres.
type Store struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// Open connects to the snapshot database described by cfg. The pool is
// pinged within cfg.ConnectTimeout so a bad DSN fails here rather than on
// the first snapshot query.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("scene store dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "tessera"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open scene store: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reach scene store %s: %w", poolCfg.ConnConfig.Host, err)
	}

	log.Debug("scene store connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Store{Pool: pool, log: log}, nil
}

// Close waits for in-flight snapshot queries and closes every pooled
// connection. The store is unusable afterwards.
func (s *Store) Close() {
	s.Pool.Close()
	s.log.Debug("scene store closed")
}
