package db

import (
	"context"
	"time"

	"github.com/senyabanana/pharma-marketplace/internal/router/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// InitDb инициализирует подключение к базе данных и возвращает пул соединений.
func InitDb(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.PostgresConn == "" {
		return nil, errors.New("POSTGRES_CONN is not set")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConn)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to database")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(pingCtx); err != nil {
		dbPool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	return dbPool, nil
}
