// Package csvfile implements the row-store ports over the two-file CSV
// layout produced by the transaction sync: a full base table and a sparse
// override table. The override file is rewritten in full on every mutation
// using a write-temp-then-rename replace, so a concurrent reader never
// observes a half-written file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"finboard/internal/core"
)

// Base table column headers, matching the sync feed.
var baseHeader = []string{
	"transaction_id",
	"date",
	"amount",
	"merchant_name",
	"name",
	"account_id",
	"personal_finance_category.primary",
	"personal_finance_category.detailed",
}

// Override table headers: the key plus the two overridable fields. An empty
// cell means "field not overridden", never zero.
var overrideHeader = []string{
	"transaction_id",
	"amount",
	"personal_finance_category.primary",
}

type BaseStore struct {
	path string
}

func NewBaseStore(path string) *BaseStore {
	return &BaseStore{path: path}
}

func (s *BaseStore) ReadAll(ctx context.Context) ([]core.Transaction, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open base table %s: %w", s.path, errors.Join(core.ErrDataSource, err))
	}
	defer f.Close()

	// FieldsPerRecord stays 0 so the header row fixes the width; the feed
	// may carry extra columns beyond the ones read here.
	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read base header: %w", errors.Join(core.ErrDataSource, err))
	}
	col, err := columnIndex(header, baseHeader)
	if err != nil {
		return nil, err
	}

	var rows []core.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read base row: %w", errors.Join(core.ErrDataSource, err))
		}
		t, err := parseTransaction(rec, col)
		if err != nil {
			return nil, fmt.Errorf("parse base row %q: %w", rec[col["transaction_id"]], err)
		}
		rows = append(rows, t)
	}
	return rows, nil
}

func (s *BaseStore) GetByID(ctx context.Context, id string) (core.Transaction, error) {
	rows, err := s.ReadAll(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range rows {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *BaseStore) LastModified(_ context.Context) (time.Time, error) {
	return fileModTime(s.path)
}

type OverrideStore struct {
	mu   sync.Mutex
	path string
}

func NewOverrideStore(path string) *OverrideStore {
	return &OverrideStore{path: path}
}

func (s *OverrideStore) ReadAll(ctx context.Context) ([]core.Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(ctx)
}

func (s *OverrideStore) readLocked(ctx context.Context) ([]core.Override, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing override file is an empty table, not an error.
			return nil, nil
		}
		return nil, fmt.Errorf("open override table %s: %w", s.path, errors.Join(core.ErrDataSource, err))
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read override header: %w", errors.Join(core.ErrDataSource, err))
	}
	col, err := columnIndex(header, overrideHeader)
	if err != nil {
		return nil, err
	}

	var out []core.Override
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read override row: %w", errors.Join(core.ErrDataSource, err))
		}
		o := core.Override{TransactionID: rec[col["transaction_id"]]}
		if v := strings.TrimSpace(rec[col["amount"]]); v != "" {
			cents, err := core.ParseAmountToCents(v)
			if err != nil {
				return nil, fmt.Errorf("override amount %q for %s: %w", v, o.TransactionID, errors.Join(core.ErrDataSource, err))
			}
			o.Amount = &core.Money{Cents: cents}
		}
		if v := rec[col["personal_finance_category.primary"]]; v != "" {
			o.Category = &v
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *OverrideStore) Upsert(ctx context.Context, o core.Override) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readLocked(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range current {
		if current[i].TransactionID == o.TransactionID {
			current[i] = o
			replaced = true
			break
		}
	}
	if !replaced {
		current = append(current, o)
	}
	return s.writeLocked(current)
}

func (s *OverrideStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readLocked(ctx)
	if err != nil {
		return err
	}
	kept := current[:0]
	for _, o := range current {
		if o.TransactionID != id {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(current) {
		return nil
	}
	return s.writeLocked(kept)
}

func (s *OverrideStore) LastModified(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := fileModTime(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	return t, err
}

// writeLocked replaces the override file atomically. Rows are written in id
// order so repeated writes of the same table are byte-identical.
func (s *OverrideStore) writeLocked(rows []core.Override) error {
	sort.Slice(rows, func(i, j int) bool { return rows[i].TransactionID < rows[j].TransactionID })

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".overrides-*.csv")
	if err != nil {
		return fmt.Errorf("create temp override file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(overrideHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write override header: %w", err)
	}
	for _, o := range rows {
		rec := []string{o.TransactionID, "", ""}
		if o.Amount != nil {
			rec[1] = o.Amount.String()
		}
		if o.Category != nil {
			rec[2] = *o.Category
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write override row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush override file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync override file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close override file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace override file: %w", err)
	}
	return nil
}

func parseTransaction(rec []string, col map[string]int) (core.Transaction, error) {
	date, err := core.ParseDate(rec[col["date"]])
	if err != nil {
		return core.Transaction{}, errors.Join(core.ErrDataSource, err)
	}
	cents, err := core.ParseAmountToCents(rec[col["amount"]])
	if err != nil {
		return core.Transaction{}, errors.Join(core.ErrDataSource, err)
	}
	t := core.Transaction{
		ID:               rec[col["transaction_id"]],
		Date:             date,
		Amount:           core.Money{Cents: cents},
		MerchantName:     rec[col["merchant_name"]],
		Name:             rec[col["name"]],
		AccountID:        rec[col["account_id"]],
		Category:         core.Category(rec[col["personal_finance_category.primary"]]),
		CategoryDetailed: rec[col["personal_finance_category.detailed"]],
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, errors.Join(core.ErrDataSource, err)
	}
	return t, nil
}

func columnIndex(header, want []string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range want {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q: %w", name, core.ErrDataSource)
		}
	}
	return col, nil
}

func fileModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}
