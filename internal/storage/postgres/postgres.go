// Package postgres implements the destination tables on PostgreSQL via pgx.
// Counter semantics come from atomic INSERT .. ON CONFLICT DO UPDATE upserts;
// the hourly retention window is an expires_at column filtered on read.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"payment-stream-lab/internal/storage"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", storage.ErrUnavailable)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// Destinations bundles all destination stores over one pool.
func Destinations(pool *Pool) *storage.Destinations {
	return &storage.Destinations{
		UserLog:     NewUserLog(pool),
		CategoryLog: NewCategoryLog(pool),
		HourlyLog:   NewHourlyLog(pool),
		Counters:    NewCounterStore(pool),
	}
}

// translateErr maps driver errors onto the storage taxonomy.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUnavailable reports whether the error means the connection is down.
func isUnavailable(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}
