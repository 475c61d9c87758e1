// Package store defines the row-store ports the dashboard core depends on.
// Concrete stores live in the subpackages (memory, csvfile, sqlite, gsheet).
package store

import (
	"context"
	"time"

	"finboard/internal/core"
)

type (
	// RowStore reads the base transaction table. Base rows are owned by the
	// external sync process; the dashboard never writes them.
	RowStore interface {
		// ReadAll returns every base transaction.
		ReadAll(ctx context.Context) ([]core.Transaction, error)

		// GetByID returns one transaction or core.ErrNotFound.
		GetByID(ctx context.Context, id string) (core.Transaction, error)

		// LastModified is the freshness signal for cheap change detection.
		LastModified(ctx context.Context) (time.Time, error)
	}

	// OverrideStore persists the sparse table of user corrections, keyed by
	// transaction id. Writes replace the stored table atomically: a
	// concurrent reader sees either the old or the new table, never a
	// partially written one.
	OverrideStore interface {
		// ReadAll returns the full current override table.
		ReadAll(ctx context.Context) ([]core.Override, error)

		// Upsert replaces the override row for its transaction id, or adds
		// it when absent.
		Upsert(ctx context.Context, o core.Override) error

		// Delete removes the override for id; absent ids are a no-op.
		Delete(ctx context.Context, id string) error

		// LastModified is the freshness signal for cheap change detection.
		LastModified(ctx context.Context) (time.Time, error)
	}
)
