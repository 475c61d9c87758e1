package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/dataset"
	"finboard/internal/store/memory"
)

var testNow = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

func testSettings() DashboardSettings {
	return DashboardSettings{
		PageSize:     10,
		WindowDays:   30,
		RollingLabel: "Last 30 Days",
		SharedBudgets: core.Budgets{
			core.CategoryTotal:      {Cents: 250000},
			core.FoodAndDrink:       {Cents: 10000},
			core.GeneralMerchandise: {Cents: 60000},
		},
		OwnerBudgets: core.Budgets{
			core.Entertainment: {Cents: 10000},
		},
		Excluded: []core.Category{
			core.GeneralMerchandise, core.FoodAndDrink, core.Transportation,
			core.RentAndUtilities, core.Medical,
		},
		Now: func() time.Time { return testNow },
	}
}

func aprilRows(n int) []core.Transaction {
	rows := make([]core.Transaction, 0, n)
	for i := 0; i < n; i++ {
		day := i%28 + 1
		rows = append(rows, core.Transaction{
			ID:           fmt.Sprintf("t%02d", i),
			Date:         core.NewDate(2025, 4, day),
			Amount:       core.Money{Cents: 1000},
			MerchantName: "m",
			Name:         "n",
			AccountID:    "plaid-jay-checking",
			Category:     core.Entertainment,
		})
	}
	return rows
}

func newDashboardFixture(t *testing.T, rows []core.Transaction) (*DashboardService, *memory.RowStore) {
	t.Helper()
	base := memory.NewRowStore(rows)
	data := dataset.New(base, memory.NewOverrideStore())
	return NewDashboardService(data, testSettings()), base
}

func TestViewPagination(t *testing.T) {
	svc, _ := newDashboardFixture(t, aprilRows(23))
	ctx := context.Background()

	sizes := []int{10, 10, 3}
	for page := 1; page <= 3; page++ {
		result, err := svc.View(ctx, ViewRequest{Timespan: "April 2025", Owner: OwnerAll, Page: page})
		if err != nil {
			t.Fatalf("View page %d: %v", page, err)
		}
		if result.PageCount != 3 {
			t.Errorf("page %d: PageCount = %d, want 3", page, result.PageCount)
		}
		if len(result.Rows) != sizes[page-1] {
			t.Errorf("page %d: %d rows, want %d", page, len(result.Rows), sizes[page-1])
		}
	}

	// Summary covers the whole filtered set, not just the page.
	result, err := svc.View(ctx, ViewRequest{Timespan: "April 2025", Owner: OwnerAll, Page: 2})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if result.Summary.Total.Cents != 23000 {
		t.Errorf("Summary.Total = %d, want 23000", result.Summary.Total.Cents)
	}
}

func TestViewRollingMatchesNamedMonth(t *testing.T) {
	svc, _ := newDashboardFixture(t, aprilRows(12))
	ctx := context.Background()

	rolling, err := svc.View(ctx, ViewRequest{Timespan: "Last 30 Days", Owner: OwnerAll, Page: 1})
	if err != nil {
		t.Fatalf("View rolling: %v", err)
	}
	named, err := svc.View(ctx, ViewRequest{Timespan: "April 2025", Owner: OwnerAll, Page: 1})
	if err != nil {
		t.Fatalf("View named: %v", err)
	}
	if rolling.Summary.Total != named.Summary.Total {
		t.Errorf("rolling total %d != named total %d on coinciding ranges",
			rolling.Summary.Total.Cents, named.Summary.Total.Cents)
	}
	if len(rolling.Rows) != len(named.Rows) {
		t.Errorf("rolling %d rows, named %d rows", len(rolling.Rows), len(named.Rows))
	}
}

func TestViewOwnerExcludesEssentials(t *testing.T) {
	rows := []core.Transaction{
		{
			ID: "rent", Date: core.NewDate(2025, 4, 5), Amount: core.Money{Cents: 120000},
			AccountID: "plaid-jay-checking", Category: core.RentAndUtilities,
		},
		{
			ID: "fun", Date: core.NewDate(2025, 4, 6), Amount: core.Money{Cents: 3000},
			AccountID: "plaid-jay-checking", Category: core.Entertainment,
		},
	}
	svc, _ := newDashboardFixture(t, rows)
	ctx := context.Background()

	all, err := svc.View(ctx, ViewRequest{Timespan: "April 2025", Owner: OwnerAll, Page: 1})
	if err != nil {
		t.Fatalf("View all: %v", err)
	}
	if len(all.Rows) != 2 {
		t.Errorf("all-owners view has %d rows, want 2", len(all.Rows))
	}

	jay, err := svc.View(ctx, ViewRequest{Timespan: "April 2025", Owner: "jay", Page: 1})
	if err != nil {
		t.Fatalf("View jay: %v", err)
	}
	if len(jay.Rows) != 1 || jay.Rows[0].ID != "fun" {
		t.Errorf("owner view rows = %+v, want only the discretionary row", jay.Rows)
	}
}

func TestViewBudgetsPerOwner(t *testing.T) {
	svc, _ := newDashboardFixture(t, aprilRows(1))
	ctx := context.Background()

	all, err := svc.View(ctx, ViewRequest{Timespan: "April 2025", Owner: OwnerAll, Page: 1})
	if err != nil {
		t.Fatalf("View all: %v", err)
	}
	if len(all.Budgets) != 3 || all.Budgets[0].Category != core.CategoryTotal {
		t.Errorf("all-owners budgets = %+v, want shared table with Total first", all.Budgets)
	}

	jay, err := svc.View(ctx, ViewRequest{Timespan: "April 2025", Owner: "jay", Page: 1})
	if err != nil {
		t.Fatalf("View jay: %v", err)
	}
	if len(jay.Budgets) != 1 || jay.Budgets[0].Category != core.Entertainment {
		t.Errorf("owner budgets = %+v, want the individual table", jay.Budgets)
	}
}

func TestViewCacheReflectsDataChange(t *testing.T) {
	svc, base := newDashboardFixture(t, aprilRows(5))
	ctx := context.Background()
	req := ViewRequest{Timespan: "April 2025", Owner: OwnerAll, Page: 1}

	first, err := svc.View(ctx, req)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(first.Rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(first.Rows))
	}

	time.Sleep(2 * time.Millisecond)
	base.Replace(aprilRows(6))

	second, err := svc.View(ctx, req)
	if err != nil {
		t.Fatalf("View after change: %v", err)
	}
	if len(second.Rows) != 6 {
		t.Errorf("got %d rows after base change, want 6 (stale cache served)", len(second.Rows))
	}
}

func TestTimespans(t *testing.T) {
	rows := []core.Transaction{
		{ID: "a", Date: core.NewDate(2025, 3, 10), Amount: core.Money{Cents: 100}, AccountID: "x", Category: core.Entertainment},
		{ID: "b", Date: core.NewDate(2025, 4, 10), Amount: core.Money{Cents: 100}, AccountID: "x", Category: core.Entertainment},
	}
	svc, _ := newDashboardFixture(t, rows)

	got, err := svc.Timespans(context.Background())
	if err != nil {
		t.Fatalf("Timespans: %v", err)
	}
	want := []string{"Last 30 Days", "March 2025", "April 2025"}
	if len(got) != len(want) {
		t.Fatalf("Timespans = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Timespans[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
