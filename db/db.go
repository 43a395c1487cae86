package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens a Postgres pool and pings it. ctx bounds the ping only.
func Connect(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(min(pool.MaxIdleConns, pool.MaxOpenConns))
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			slog.WarnContext(ctx, "failed to close database handle after ping error", slog.Any("error", closeErr))
		}
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}
	return conn, nil
}
