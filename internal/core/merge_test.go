package core

import "testing"

func baseRows() []Transaction {
	return []Transaction{
		{
			ID:           "t1",
			Date:         NewDate(2025, 3, 10),
			Amount:       Money{Cents: 4200},
			MerchantName: "Corner Deli",
			Name:         "CORNER DELI 0042",
			AccountID:    "plaid-jay-checking",
			Category:     FoodAndDrink,
		},
		{
			ID:           "t2",
			Date:         NewDate(2025, 3, 12),
			Amount:       Money{Cents: 1999},
			MerchantName: "Metro Transit",
			AccountID:    "plaid-cara-credit",
			Category:     Transportation,
		},
	}
}

func TestMergeEmptyOverridesIsIdentity(t *testing.T) {
	base := baseRows()
	merged := Merge(base, nil)
	if len(merged) != len(base) {
		t.Fatalf("row count changed: got %d want %d", len(merged), len(base))
	}
	for i := range base {
		if merged[i] != base[i] {
			t.Errorf("row %d changed: got %+v want %+v", i, merged[i], base[i])
		}
	}
}

func TestMergeFieldLevelIndependence(t *testing.T) {
	amount := Money{Cents: 100}
	category := string(Entertainment)

	tests := []struct {
		name         string
		override     Override
		wantAmount   Money
		wantCategory Category
	}{
		{
			name:         "amount only keeps category",
			override:     Override{TransactionID: "t1", Amount: &amount},
			wantAmount:   amount,
			wantCategory: FoodAndDrink,
		},
		{
			name:         "category only keeps amount",
			override:     Override{TransactionID: "t1", Category: &category},
			wantAmount:   Money{Cents: 4200},
			wantCategory: Entertainment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := Merge(baseRows(), []Override{tt.override})
			got := merged[0]
			if got.Amount != tt.wantAmount {
				t.Errorf("amount: got %v want %v", got.Amount, tt.wantAmount)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("category: got %v want %v", got.Category, tt.wantCategory)
			}
			if got.MerchantName != "Corner Deli" || got.AccountID != "plaid-jay-checking" {
				t.Errorf("non-overridable fields changed: %+v", got)
			}
		})
	}
}

func TestMergeZeroAmountOverrideApplies(t *testing.T) {
	zero := Money{Cents: 0}
	merged := Merge(baseRows(), []Override{{TransactionID: "t1", Amount: &zero}})
	if merged[0].Amount.Cents != 0 {
		t.Fatalf("zero amount override ignored: got %d cents", merged[0].Amount.Cents)
	}
}

func TestMergeIgnoresUnknownIDs(t *testing.T) {
	amount := Money{Cents: 1}
	merged := Merge(baseRows(), []Override{{TransactionID: "gone", Amount: &amount}})
	if len(merged) != 2 {
		t.Fatalf("unexpected row count %d", len(merged))
	}
	for i, row := range baseRows() {
		if merged[i] != row {
			t.Errorf("row %d changed: %+v", i, merged[i])
		}
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	amount := Money{Cents: 777}
	category := string(Entertainment)
	overrides := []Override{
		{TransactionID: "t2", Amount: &amount},
		{TransactionID: "t1", Category: &category},
	}
	first := Merge(baseRows(), overrides)
	second := Merge(baseRows(), overrides)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("merge not deterministic at row %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
