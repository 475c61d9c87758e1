package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finboard/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "finboard.db")
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestBaseStore(t *testing.T, blobs []string) *BaseStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sync.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open sync db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE transactions (plaid_json TEXT NOT NULL)`); err != nil {
		t.Fatalf("create transactions table: %v", err)
	}
	for _, b := range blobs {
		if _, err := db.Exec(`INSERT INTO transactions (plaid_json) VALUES (?)`, b); err != nil {
			t.Fatalf("insert transaction: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close sync db: %v", err)
	}
	store, err := NewBaseStore(dbPath,
		WithRecategorizations(map[string]Recategorization{
			"Aldi": {Primary: core.GeneralMerchandise, Detailed: "GENERAL_MERCHANDISE_GROCERIES"},
		}),
		WithHiddenMerchants([]string{"Internal Transfer"}),
	)
	if err != nil {
		t.Fatalf("NewBaseStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func plaidBlob(id, date string, amount float64, merchant, account, primary string) string {
	return `{"transaction_id":"` + id + `","date":"` + date + `","amount":` +
		core.Money{Cents: int64(amount * 100)}.String() +
		`,"merchant_name":"` + merchant + `","name":"` + merchant +
		`","account_id":"` + account + `","personal_finance_category":{"primary":"` + primary +
		`","detailed":"` + primary + `_OTHER"}}`
}

func TestBaseStoreReadAll(t *testing.T) {
	store := newTestBaseStore(t, []string{
		plaidBlob("t1", "2025-04-12", 42.00, "Trader Joe's", "plaid-jay-checking", "FOOD_AND_DRINK"),
		plaidBlob("t2", "2025-04-10", 18.50, "Aldi", "plaid-cara-credit", "FOOD_AND_DRINK"),
		plaidBlob("t3", "2025-04-09", 500.00, "Internal Transfer", "plaid-jay-checking", "TRANSFER_OUT"),
	})

	rows, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (hidden merchant dropped)", len(rows))
	}
	byID := make(map[string]core.Transaction, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	if got := byID["t1"].Amount.Cents; got != 4200 {
		t.Errorf("t1 amount = %d cents, want 4200", got)
	}
	if got := byID["t2"].Category; got != core.GeneralMerchandise {
		t.Errorf("Aldi category = %q, want %q after recategorization", got, core.GeneralMerchandise)
	}
	if _, ok := byID["t3"]; ok {
		t.Error("hidden merchant row survived ReadAll")
	}
}

func TestBaseStoreGetByID(t *testing.T) {
	store := newTestBaseStore(t, []string{
		plaidBlob("t1", "2025-04-12", 42.00, "Trader Joe's", "plaid-jay-checking", "FOOD_AND_DRINK"),
	})

	got, err := store.GetByID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.MerchantName != "Trader Joe's" {
		t.Errorf("merchant = %q, want Trader Joe's", got.MerchantName)
	}

	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetByID(missing) = %v, want ErrNotFound", err)
	}
}

func TestBaseStoreCorruptRow(t *testing.T) {
	store := newTestBaseStore(t, []string{`{"transaction_id":"bad","date":"not-a-date"}`})

	if _, err := store.ReadAll(context.Background()); !errors.Is(err, core.ErrDataSource) {
		t.Errorf("ReadAll on corrupt row = %v, want ErrDataSource", err)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	amount := core.Money{Cents: 0}
	category := "GENERAL_MERCHANDISE"
	err := repo.Upsert(ctx, core.Override{TransactionID: "t1", Amount: &amount, Category: &category})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d overrides, want 1", len(got))
	}
	if got[0].Amount == nil || got[0].Amount.Cents != 0 {
		t.Errorf("zero amount override did not survive the round trip: %+v", got[0].Amount)
	}
	if got[0].Category == nil || *got[0].Category != category {
		t.Errorf("category = %v, want %q", got[0].Category, category)
	}

	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll after delete: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d overrides after delete, want 0", len(got))
	}
}

func TestRepositoryUpsertReplaces(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := core.Money{Cents: 1000}
	if err := repo.Upsert(ctx, core.Override{TransactionID: "t1", Amount: &first}); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	category := "TRANSPORTATION"
	if err := repo.Upsert(ctx, core.Override{TransactionID: "t1", Category: &category}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d overrides, want 1", len(got))
	}
	// Upsert replaces the whole row; partial merging is the service's job.
	if got[0].Amount != nil {
		t.Errorf("amount = %v, want nil after replacing upsert", got[0].Amount)
	}
	if got[0].Category == nil || *got[0].Category != category {
		t.Errorf("category = %v, want %q", got[0].Category, category)
	}
}

func TestRepositoryLastModified(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	before, err := repo.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified before writes: %v", err)
	}
	if !before.IsZero() {
		t.Fatalf("LastModified before writes = %v, want zero", before)
	}

	amount := core.Money{Cents: 500}
	if err := repo.Upsert(ctx, core.Override{TransactionID: "t1", Amount: &amount}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	afterUpsert, err := repo.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified after upsert: %v", err)
	}
	if afterUpsert.IsZero() {
		t.Fatal("LastModified still zero after upsert")
	}

	time.Sleep(5 * time.Millisecond)
	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	afterDelete, err := repo.LastModified(ctx)
	if err != nil {
		t.Fatalf("LastModified after delete: %v", err)
	}
	if !afterDelete.After(afterUpsert) {
		t.Errorf("delete did not advance LastModified: %v !> %v", afterDelete, afterUpsert)
	}
}

func TestRepositoryValidation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.Upsert(ctx, core.Override{TransactionID: "t1"})
	if !errors.Is(err, core.ErrNoFieldToSet) {
		t.Errorf("Upsert with no fields = %v, want ErrNoFieldToSet", err)
	}
	if err := repo.Delete(ctx, ""); !errors.Is(err, core.ErrEmptyID) {
		t.Errorf("Delete with empty id = %v, want ErrEmptyID", err)
	}
}

func TestRepositoryAuditTrail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cents := int64(4200)
	category := "FOOD_AND_DRINK"
	base := time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)
	if err := repo.RecordOverrideChange(ctx, "t1", "upserted", &cents, &category, base); err != nil {
		t.Fatalf("RecordOverrideChange: %v", err)
	}
	if err := repo.RecordOverrideChange(ctx, "t1", "deleted", nil, nil, base.Add(time.Hour)); err != nil {
		t.Fatalf("RecordOverrideChange: %v", err)
	}
	if err := repo.RecordOverrideChange(ctx, "t2", "upserted", nil, &category, base); err != nil {
		t.Fatalf("RecordOverrideChange: %v", err)
	}

	trail, err := repo.AuditTrail(ctx, "t1", 0)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("got %d entries, want 2", len(trail))
	}
	if trail[0].Action != "deleted" || trail[1].Action != "upserted" {
		t.Errorf("trail order = [%s, %s], want most recent first", trail[0].Action, trail[1].Action)
	}
	if trail[1].AmountCents == nil || *trail[1].AmountCents != 4200 {
		t.Errorf("upserted entry amount = %v, want 4200", trail[1].AmountCents)
	}
	if trail[0].AmountCents != nil || trail[0].Category != nil {
		t.Error("deleted entry should carry no field values")
	}
}
