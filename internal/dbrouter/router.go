// Package dbrouter implements the per-tenant database router: given a
// tenant ID it opens a short-lived, unpooled connection to that tenant's
// isolated database, runs the caller's work inside a transaction, and
// disposes the connection on every exit path.
package dbrouter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ingestio/enginecore/internal/config"
	"github.com/ingestio/enginecore/internal/tenantid"
)

// Router constructs per-invocation sessions against tenant databases. It
// holds no long-lived pool; every call to WithSession builds a fresh
// pgxpool.Pool sized to a single connection (matching the serverless-style
// pool_size=1, max_overflow=0, pool_pre_ping=True configuration the tenant
// session manager this engine replaces used), uses it for exactly one unit
// of work, and closes it before returning.
type Router struct {
	cfg    config.AdminDBConfig
	logger *slog.Logger
}

// New creates a Router bound to the administrative database credentials.
func New(cfg config.AdminDBConfig, logger *slog.Logger) *Router {
	return &Router{cfg: cfg, logger: logger}
}

// DatabaseName returns the physical database name for a (normalized) tenant
// ID.
func (r *Router) DatabaseName(tenantID string) string {
	return tenantid.DatabaseName(tenantID)
}

// WithSession opens a fresh, minimally-pooled connection to tenant's
// database, runs work inside a transaction, commits on success, rolls back
// on error, and always releases the connection. If the tenant database does
// not exist, the connect error surfaces unchanged so the caller can invoke
// the Provisioner.
func (r *Router) WithSession(ctx context.Context, tenantID string, work func(ctx context.Context, tx pgx.Tx) error) error {
	dbName := r.DatabaseName(tenantID)
	url := r.cfg.URL(dbName)

	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("dbrouter: parse connection config for %s: %w", dbName, err)
	}
	poolCfg.MaxConns = 1
	poolCfg.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("dbrouter: open session for %s: %w", dbName, err)
	}
	defer pool.Close()

	// Pre-ping: fail fast on a dead or nonexistent database rather than on
	// the first real statement.
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("dbrouter: ping %s: %w", dbName, err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("dbrouter: acquire connection for %s: %w", dbName, err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("dbrouter: begin transaction for %s: %w", dbName, err)
	}

	if err := work(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn("dbrouter: rollback failed", "tenant_id", tenantID, "database", dbName, "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("dbrouter: commit transaction for %s: %w", dbName, err)
	}

	return nil
}

// Exists reports whether the tenant's database exists, by probing
// pg_database through the administrative bootstrap database.
func (r *Router) Exists(ctx context.Context, tenantID string) (bool, error) {
	dbName := r.DatabaseName(tenantID)
	conn, err := pgx.Connect(ctx, r.cfg.URL(r.cfg.Database))
	if err != nil {
		return false, fmt.Errorf("dbrouter: connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dbrouter: query pg_database: %w", err)
	}
	return exists, nil
}
