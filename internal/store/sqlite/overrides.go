package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finboard/internal/core"
)

// Repository stores overrides and their audit trail in the finboard
// database. The schema is managed by RunMigrations.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open override database: %w", err)
	}
	// Overrides are written from HTTP handlers and the audit worker
	// concurrently; a single connection sidesteps SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ReadAll(ctx context.Context) ([]core.Override, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, amount_cents, category FROM overrides ORDER BY transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", errors.Join(core.ErrDataSource, err))
	}
	defer rows.Close()

	var out []core.Override
	for rows.Next() {
		var (
			o        core.Override
			cents    sql.NullInt64
			category sql.NullString
		)
		if err := rows.Scan(&o.TransactionID, &cents, &category); err != nil {
			return nil, fmt.Errorf("scan override row: %w", errors.Join(core.ErrDataSource, err))
		}
		if cents.Valid {
			o.Amount = &core.Money{Cents: cents.Int64}
		}
		if category.Valid {
			c := category.String
			o.Category = &c
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", errors.Join(core.ErrDataSource, err))
	}
	return out, nil
}

func (r *Repository) Upsert(ctx context.Context, o core.Override) error {
	if err := o.Validate(); err != nil {
		return err
	}
	var (
		cents    sql.NullInt64
		category sql.NullString
	)
	if o.Amount != nil {
		cents = sql.NullInt64{Int64: o.Amount.Cents, Valid: true}
	}
	if o.Category != nil {
		category = sql.NullString{String: *o.Category, Valid: true}
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO overrides (transaction_id, amount_cents, category, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (transaction_id) DO UPDATE SET
				amount_cents = excluded.amount_cents,
				category = excluded.category,
				updated_at = excluded.updated_at`,
			o.TransactionID, cents, category, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("upsert override %s: %w", o.TransactionID, err)
		}
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return core.ErrEmptyID
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM overrides WHERE transaction_id = ?`, transactionID); err != nil {
			return fmt.Errorf("delete override %s: %w", transactionID, err)
		}
		return nil
	})
}

// LastModified reads the freshness marker maintained by every mutating
// transaction. A max(updated_at) over the table would miss deletes.
func (r *Repository) LastModified(ctx context.Context) (time.Time, error) {
	var modified time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT modified_at FROM override_meta WHERE id = 1`).Scan(&modified)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query override meta: %w", errors.Join(core.ErrDataSource, err))
	}
	return modified, nil
}

// RecordOverrideChange appends one entry to the audit trail. Called by the
// audit worker for every change event it consumes.
func (r *Repository) RecordOverrideChange(ctx context.Context, transactionID, action string, amountCents *int64, category *string, occurredAt time.Time) error {
	if transactionID == "" {
		return core.ErrEmptyID
	}
	var (
		cents sql.NullInt64
		cat   sql.NullString
	)
	if amountCents != nil {
		cents = sql.NullInt64{Int64: *amountCents, Valid: true}
	}
	if category != nil {
		cat = sql.NullString{String: *category, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO override_audit (transaction_id, action, amount_cents, category, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		transactionID, action, cents, cat, occurredAt.UTC())
	if err != nil {
		return fmt.Errorf("record override change %s: %w", transactionID, err)
	}
	return nil
}

// AuditEntry is one row of the override change trail.
type AuditEntry struct {
	TransactionID string
	Action        string
	AmountCents   *int64
	Category      *string
	OccurredAt    time.Time
}

// AuditTrail lists changes for one transaction, most recent first.
func (r *Repository) AuditTrail(ctx context.Context, transactionID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, action, amount_cents, category, occurred_at
		FROM override_audit
		WHERE transaction_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, transactionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", errors.Join(core.ErrDataSource, err))
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			e     AuditEntry
			cents sql.NullInt64
			cat   sql.NullString
		)
		if err := rows.Scan(&e.TransactionID, &e.Action, &cents, &cat, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", errors.Join(core.ErrDataSource, err))
		}
		if cents.Valid {
			e.AmountCents = &cents.Int64
		}
		if cat.Valid {
			e.Category = &cat.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", errors.Join(core.ErrDataSource, err))
	}
	return out, nil
}

// inTx wraps fn in a transaction that also bumps the freshness marker.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", errors.Join(core.ErrDataSource, err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return errors.Join(core.ErrDataSource, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO override_meta (id, modified_at) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET modified_at = excluded.modified_at`,
		time.Now().UTC()); err != nil {
		return fmt.Errorf("update override meta: %w", errors.Join(core.ErrDataSource, err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", errors.Join(core.ErrDataSource, err))
	}
	return nil
}
