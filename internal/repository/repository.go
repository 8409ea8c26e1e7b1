// Package repository implements the tenant-database persistence layer: job
// records, and the idempotent batched writers for event, user, and location
// data. Every method runs through the per-tenant database router, so each
// call is a self-contained session against the tenant's own database.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ingestio/enginecore/internal/dbrouter"
)

// batchSize is the row count per INSERT/UPSERT statement. 500 keeps a single
// statement's parameter count well under PostgreSQL's protocol limit while
// still writing in large enough chunks to matter for throughput.
const batchSize = 500

// Repository persists job and warehouse/SFTP extraction results into a
// tenant's isolated database.
type Repository struct {
	router *dbrouter.Router
}

// New creates a Repository bound to router.
func New(router *dbrouter.Router) *Repository {
	return &Repository{router: router}
}

func batches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

// upsertBatch writes one batch of rows via a multi-row INSERT ... ON
// CONFLICT (conflictCol) DO UPDATE, updating every column in updatable plus
// updated_at.
func upsertBatch[T any](ctx context.Context, tx pgx.Tx, table, conflictCol string, columns, updatable []string, valuesFn func(T) []any, batch []T) error {
	if len(batch) == 0 {
		return nil
	}

	var placeholders []string
	var args []any
	n := 0
	for _, item := range batch {
		values := valuesFn(item)
		ph := make([]string, len(values))
		for i := range values {
			n++
			ph[i] = fmt.Sprintf("$%d", n)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args, values...)
	}

	sets := make([]string, len(updatable))
	for i, col := range updatable {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	sets = append(sets, "updated_at = NOW()")

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), conflictCol, strings.Join(sets, ", "),
	)

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("repository: upsert into %s: %w", table, err)
	}
	return nil
}
