package core

import (
	"testing"
	"time"
)

func purchase(id string, date Date, cents int64, account string, cat Category) Transaction {
	return Transaction{ID: id, Date: date, Amount: Money{Cents: cents}, AccountID: account, Category: cat}
}

func TestFilterPurchasesDropsInflows(t *testing.T) {
	rows := []Transaction{
		purchase("out", NewDate(2025, 3, 5), 1000, "acct", FoodAndDrink),
		purchase("refund", NewDate(2025, 3, 6), -500, "acct", FoodAndDrink),
		purchase("zero", NewDate(2025, 3, 7), 0, "acct", FoodAndDrink),
	}
	got := FilterPurchases(rows, NamedPeriod("March 2025"), AllOwners(), FilterConfig{})
	if len(got) != 1 || got[0].ID != "out" {
		t.Fatalf("expected only the outflow, got %+v", got)
	}
}

func TestFilterPurchasesSortsDateDescending(t *testing.T) {
	rows := []Transaction{
		purchase("a", NewDate(2025, 3, 1), 100, "acct", FoodAndDrink),
		purchase("c", NewDate(2025, 3, 20), 100, "acct", FoodAndDrink),
		purchase("b", NewDate(2025, 3, 10), 100, "acct", FoodAndDrink),
	}
	got := FilterPurchases(rows, NamedPeriod("March 2025"), AllOwners(), FilterConfig{})
	if got[0].ID != "c" || got[1].ID != "b" || got[2].ID != "a" {
		t.Fatalf("bad order: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestFilterPurchasesRollingWindowInclusive(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	rows := []Transaction{
		purchase("edge", NewDate(2025, 3, 1), 100, "acct", FoodAndDrink),
		purchase("old", NewDate(2025, 2, 27), 100, "acct", FoodAndDrink),
		purchase("recent", NewDate(2025, 3, 30), 100, "acct", FoodAndDrink),
	}
	got := FilterPurchases(rows, RollingWindow(30), AllOwners(), FilterConfig{Now: now})
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	for _, r := range got {
		if r.ID == "old" {
			t.Fatal("row outside the window included")
		}
	}
}

func TestFilterPurchasesRollingMatchesNamedMonthOnSameRange(t *testing.T) {
	// Evaluated on May 1st, the 30-day window spans April 1-30 plus the
	// (empty) 1st of May, so it covers exactly the same rows as the named
	// April period.
	now := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	rows := []Transaction{
		purchase("a", NewDate(2025, 4, 1), 150, "acct", FoodAndDrink),
		purchase("b", NewDate(2025, 4, 15), 250, "acct", Transportation),
		purchase("c", NewDate(2025, 4, 30), 600, "acct", GeneralMerchandise),
		purchase("march", NewDate(2025, 3, 31), 999, "acct", FoodAndDrink),
	}
	rolling := FilterPurchases(rows, RollingWindow(30), AllOwners(), FilterConfig{Now: now})
	named := FilterPurchases(rows, NamedPeriod("April 2025"), AllOwners(), FilterConfig{Now: now})

	if Summarize(rolling).Total != Summarize(named).Total {
		t.Fatalf("totals differ: rolling=%v named=%v",
			Summarize(rolling).Total, Summarize(named).Total)
	}
}

func TestFilterPurchasesOwnerExclusion(t *testing.T) {
	cfg := FilterConfig{Excluded: []Category{GeneralMerchandise, FoodAndDrink, Transportation, RentAndUtilities, Medical}}
	rows := []Transaction{
		purchase("rent", NewDate(2025, 3, 1), 120000, "plaid-jay-checking", RentAndUtilities),
		purchase("fun", NewDate(2025, 3, 2), 3000, "plaid-jay-checking", Entertainment),
		purchase("other", NewDate(2025, 3, 3), 4000, "plaid-cara-credit", Entertainment),
	}

	t.Run("specific owner excludes essentials and other accounts", func(t *testing.T) {
		got := FilterPurchases(rows, NamedPeriod("March 2025"), Owner("jay"), cfg)
		if len(got) != 1 || got[0].ID != "fun" {
			t.Fatalf("want only jay's discretionary row, got %+v", got)
		}
	})

	t.Run("all owners keeps essentials", func(t *testing.T) {
		got := FilterPurchases(rows, NamedPeriod("March 2025"), AllOwners(), cfg)
		if len(got) != 3 {
			t.Fatalf("want all 3 rows, got %d", len(got))
		}
	})
}

func TestMonthLabels(t *testing.T) {
	rows := []Transaction{
		purchase("a", NewDate(2025, 3, 5), 100, "acct", FoodAndDrink),
		purchase("b", NewDate(2025, 1, 20), 100, "acct", FoodAndDrink),
		purchase("c", NewDate(2025, 3, 9), 100, "acct", FoodAndDrink),
		purchase("d", NewDate(2024, 12, 31), 100, "acct", FoodAndDrink),
	}
	got := MonthLabels(rows)
	want := []string{"December 2024", "January 2025", "March 2025"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
