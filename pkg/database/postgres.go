package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgreSQL error codes the repositories translate into domain errors.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
)

// Querier is the query surface shared by the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the single shared database handle. At most one operation is in flight at a time:
// Do and Tx hold the lock for exactly one query or transaction and release it before
// returning, so callers never hold it across calls to Discord.
type DB struct {
	mu   sync.Mutex
	pool *pgxpool.Pool
}

// New wraps an established pool.
func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// NewPostgresPool creates a pgx connection pool for PostgreSQL.
func NewPostgresPool(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("PostgreSQL connection pool established")
	return pool, nil
}

// Do runs fn with exclusive access to the database. Rows must be fully consumed inside fn.
func (db *DB) Do(ctx context.Context, fn func(q Querier) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(db.pool)
}

// Tx runs fn inside a transaction with exclusive access; fn's error rolls back.
func (db *DB) Tx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.Do(ctx, func(Querier) error { return db.pool.Ping(ctx) })
}

// Close closes the underlying pool.
func (db *DB) Close() {
	db.pool.Close()
}

// IsNoRows reports whether err is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ConstraintViolation returns the violated constraint name when err is a PostgreSQL error with code.
func ConstraintViolation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}
