package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finboard/internal/core"
)

const baseCSV = `transaction_id,date,amount,merchant_name,name,account_id,personal_finance_category.primary,personal_finance_category.detailed
t1,2025-03-10,42.00,Corner Deli,CORNER DELI 0042,plaid-jay-checking,FOOD_AND_DRINK,FOOD_AND_DRINK_RESTAURANT
t2,2025-03-12,-19.99,Refund Co,REFUND,plaid-cara-credit,GENERAL_MERCHANDISE,GENERAL_MERCHANDISE_SUPERSTORES
`

func writeBase(t *testing.T, dir string) *BaseStore {
	t.Helper()
	path := filepath.Join(dir, "transactions.csv")
	if err := os.WriteFile(path, []byte(baseCSV), 0o644); err != nil {
		t.Fatalf("write base csv: %v", err)
	}
	return NewBaseStore(path)
}

func TestBaseStoreReadAll(t *testing.T) {
	s := writeBase(t, t.TempDir())
	rows, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].ID != "t1" || rows[0].Amount.Cents != 4200 || rows[0].Category != core.FoodAndDrink {
		t.Errorf("row 1 parsed wrong: %+v", rows[0])
	}
	if rows[1].Amount.Cents != -1999 {
		t.Errorf("negative amount parsed wrong: %+v", rows[1])
	}
}

func TestBaseStoreGetByID(t *testing.T) {
	s := writeBase(t, t.TempDir())
	got, err := s.GetByID(context.Background(), "t2")
	if err != nil || got.MerchantName != "Refund Co" {
		t.Fatalf("get t2: %+v err=%v", got, err)
	}
	if _, err := s.GetByID(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestBaseStoreCorruptRowsSurfaceDataSourceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	bad := "transaction_id,date,amount,merchant_name,name,account_id,personal_finance_category.primary,personal_finance_category.detailed\nt1,not-a-date,1.00,m,n,a,FOOD_AND_DRINK,X\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := NewBaseStore(path).ReadAll(context.Background())
	if !errors.Is(err, core.ErrDataSource) {
		t.Fatalf("want ErrDataSource, got %v", err)
	}
}

func TestOverrideStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.csv")
	s := NewOverrideStore(path)
	ctx := context.Background()

	// Missing file reads as an empty table.
	rows, err := s.ReadAll(ctx)
	if err != nil || len(rows) != 0 {
		t.Fatalf("empty read: rows=%v err=%v", rows, err)
	}

	category := "ENTERTAINMENT"
	if err := s.Upsert(ctx, core.Override{TransactionID: "t1", Category: &category}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	zero := core.Money{Cents: 0}
	if err := s.Upsert(ctx, core.Override{TransactionID: "t2", Amount: &zero}); err != nil {
		t.Fatalf("upsert zero: %v", err)
	}

	rows, err = s.ReadAll(ctx)
	if err != nil || len(rows) != 2 {
		t.Fatalf("read back: rows=%v err=%v", rows, err)
	}
	byID := map[string]core.Override{}
	for _, o := range rows {
		byID[o.TransactionID] = o
	}
	if o := byID["t1"]; o.Category == nil || *o.Category != "ENTERTAINMENT" || o.Amount != nil {
		t.Errorf("t1 round trip wrong: %+v", o)
	}
	// An explicit zero amount persists as zero, not as "unset".
	if o := byID["t2"]; o.Amount == nil || o.Amount.Cents != 0 || o.Category != nil {
		t.Errorf("t2 zero amount lost: %+v", o)
	}

	if err := s.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "t1"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	rows, _ = s.ReadAll(ctx)
	if len(rows) != 1 || rows[0].TransactionID != "t2" {
		t.Fatalf("after delete: %v", rows)
	}
}

func TestOverrideStoreUpsertReplacesRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.csv")
	s := NewOverrideStore(path)
	ctx := context.Background()

	amount := core.Money{Cents: 500}
	if err := s.Upsert(ctx, core.Override{TransactionID: "t1", Amount: &amount}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	category := "MEDICAL"
	if err := s.Upsert(ctx, core.Override{TransactionID: "t1", Amount: &amount, Category: &category}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	rows, _ := s.ReadAll(ctx)
	if len(rows) != 1 {
		t.Fatalf("want a single row per id, got %d", len(rows))
	}
	if rows[0].Amount.Cents != 500 || *rows[0].Category != "MEDICAL" {
		t.Errorf("replacement wrong: %+v", rows[0])
	}
}

func TestOverrideStoreLastModifiedWhenMissing(t *testing.T) {
	s := NewOverrideStore(filepath.Join(t.TempDir(), "never-written.csv"))
	mod, err := s.LastModified(context.Background())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if !mod.IsZero() {
		t.Fatalf("missing file should report the zero time, got %v", mod)
	}
}
