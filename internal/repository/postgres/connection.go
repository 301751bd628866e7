package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the common query surface of pgxpool.Pool and pgx.Tx. Repositories
// query through it so the same code runs inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txContextKey carries an open pgx transaction through a context.
type txContextKey struct{}

// setTx stores a transaction in the context.
func setTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// getTx retrieves the transaction from the context, or nil.
func getTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx
}

// CreateConnectionPool creates a pgx connection pool and verifies connectivity.
//
// By default pgx uses prepared statements (QueryExecModeCacheStatement).
// Transaction-pooling PgBouncer (port 6543 on Supabase) does not support
// prepared statements, so when that port is detected and the user has not
// overridden default_query_exec_mode in the connection string, the pool is
// switched to QueryExecModeCacheDescribe, which keeps the extended protocol
// (needed for BYTEA and JSONB parameters) without server-side prepares.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// getExecutor returns the context's transaction if one is open, otherwise the
// pool, so repositories automatically participate in transactions.
func getExecutor(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return pool
}
