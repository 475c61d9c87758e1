// Package sqlite implements the row-store ports over SQLite: a read-only
// base store on the Plaid sync database and a migrated override repository.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

// plaidTransaction mirrors the JSON blob the sync process stores per row.
type plaidTransaction struct {
	TransactionID string  `json:"transaction_id"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	MerchantName  string  `json:"merchant_name"`
	Name          string  `json:"name"`
	AccountID     string  `json:"account_id"`
	Category      struct {
		Primary  string `json:"primary"`
		Detailed string `json:"detailed"`
	} `json:"personal_finance_category"`
}

// Recategorization replaces the feed's classification for one merchant.
// Used for merchants the upstream categorizer consistently gets wrong.
type Recategorization struct {
	Primary  core.Category
	Detailed string
}

// DefaultRecategorizations corrects the merchants the feed's categorizer
// consistently misfiles.
func DefaultRecategorizations() map[string]Recategorization {
	return map[string]Recategorization{
		"Aldi": {Primary: core.GeneralMerchandise, Detailed: "GENERAL_MERCHANDISE_SUPERSTORES"},
	}
}

// DefaultHiddenMerchants lists feed rows that are bookkeeping noise, not
// spending.
func DefaultHiddenMerchants() []string {
	return []string{"Internal Transfer"}
}

// BaseStore reads transactions from the Plaid sync database. The table is
// owned by the sync process; this store never writes it.
type BaseStore struct {
	db           *sql.DB
	path         string
	recategorize map[string]Recategorization
	hidden       map[string]struct{}
}

type BaseOption func(*BaseStore)

// WithRecategorizations installs merchant-name corrections applied on read.
func WithRecategorizations(m map[string]Recategorization) BaseOption {
	return func(s *BaseStore) { s.recategorize = m }
}

// WithHiddenMerchants drops rows from the named merchants entirely.
func WithHiddenMerchants(names []string) BaseOption {
	return func(s *BaseStore) {
		s.hidden = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.hidden[n] = struct{}{}
		}
	}
}

func NewBaseStore(dbPath string, opts ...BaseOption) (*BaseStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sync database: %w", err)
	}
	s := &BaseStore{db: db, path: dbPath}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *BaseStore) Close() error {
	return s.db.Close()
}

func (s *BaseStore) ReadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT plaid_json FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", errors.Join(core.ErrDataSource, err))
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", errors.Join(core.ErrDataSource, err))
		}
		t, keep, err := s.decode(blob)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", errors.Join(core.ErrDataSource, err))
	}
	return out, nil
}

func (s *BaseStore) GetByID(ctx context.Context, id string) (core.Transaction, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT plaid_json FROM transactions WHERE json_extract(plaid_json, '$.transaction_id') = ?`, id,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("query transaction %s: %w", id, errors.Join(core.ErrDataSource, err))
	}
	t, keep, err := s.decode(blob)
	if err != nil {
		return core.Transaction{}, err
	}
	if !keep {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

// LastModified reports the database file's modification time, the cheapest
// signal the sync process leaves behind.
func (s *BaseStore) LastModified(_ context.Context) (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat sync database: %w", err)
	}
	return info.ModTime(), nil
}

func (s *BaseStore) decode(blob []byte) (core.Transaction, bool, error) {
	var p plaidTransaction
	if err := json.Unmarshal(blob, &p); err != nil {
		return core.Transaction{}, false, fmt.Errorf("decode plaid row: %w", errors.Join(core.ErrDataSource, err))
	}
	if _, drop := s.hidden[p.MerchantName]; drop {
		return core.Transaction{}, false, nil
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("plaid row %s date %q: %w", p.TransactionID, p.Date, errors.Join(core.ErrDataSource, err))
	}
	t := core.Transaction{
		ID:               p.TransactionID,
		Date:             date,
		Amount:           core.Money{Cents: int64(math.Round(p.Amount * 100))},
		MerchantName:     p.MerchantName,
		Name:             p.Name,
		AccountID:        p.AccountID,
		Category:         core.Category(p.Category.Primary),
		CategoryDetailed: p.Category.Detailed,
	}
	if r, ok := s.recategorize[p.MerchantName]; ok {
		t.Category = r.Primary
		t.CategoryDetailed = r.Detailed
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, false, errors.Join(core.ErrDataSource, err)
	}
	return t, true, nil
}
