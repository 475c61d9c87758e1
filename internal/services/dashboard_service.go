package services

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/dataset"
)

// OwnerAll selects every account.
const OwnerAll = "all"

// DashboardSettings carries the tunables the dashboard evaluates views
// with. Defaults come from config.
type DashboardSettings struct {
	PageSize     int
	WindowDays   int
	RollingLabel string // timespan option for the rolling window, e.g. "Last 30 Days"

	// SharedBudgets applies to the all-owners view; OwnerBudgets to a
	// named owner's discretionary view.
	SharedBudgets core.Budgets
	OwnerBudgets  core.Budgets

	// Excluded lists the essential categories hidden from per-owner views.
	Excluded []core.Category

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// ViewRequest selects one dashboard page.
type ViewRequest struct {
	Timespan string // rolling label or a month label such as "April 2025"
	Owner    string // OwnerAll or an owner name
	Page     int    // 1-based
}

// ViewResult is the full evaluated dashboard view: one page of rows plus
// the aggregates computed over the whole filtered set.
type ViewResult struct {
	Rows        []core.Transaction
	Page        int
	PageCount   int
	Summary     core.Summary
	Budgets     []core.BudgetStatus
	LastUpdated time.Time
}

// DashboardService evaluates read-side views over the merged dataset.
// Results are cached per selector tuple; keys embed the dataset
// generation so no explicit invalidation is needed on data change.
type DashboardService struct {
	data     *dataset.Dataset
	settings DashboardSettings
	views    *cache.LRUCache[ViewResult]
}

func NewDashboardService(data *dataset.Dataset, settings DashboardSettings) *DashboardService {
	if settings.PageSize <= 0 {
		settings.PageSize = 10
	}
	if settings.WindowDays <= 0 {
		settings.WindowDays = 30
	}
	if settings.RollingLabel == "" {
		settings.RollingLabel = "Last 30 Days"
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &DashboardService{
		data:     data,
		settings: settings,
		views:    cache.NewLRUCache[ViewResult](64, 30*time.Second),
	}
}

// ViewCache exposes the cache for cleanup registration.
func (s *DashboardService) ViewCache() *cache.LRUCache[ViewResult] {
	return s.views
}

// InvalidateViews drops all cached views. Called after override
// mutations so the next read reflects the write immediately.
func (s *DashboardService) InvalidateViews() {
	s.views.Purge()
}

// View evaluates one dashboard page.
func (s *DashboardService) View(ctx context.Context, req ViewRequest) (ViewResult, error) {
	rows, err := s.data.Snapshot(ctx)
	if err != nil {
		return ViewResult{}, fmt.Errorf("load dataset: %w", err)
	}

	key := fmt.Sprintf("%d|%s|%s|%d", s.data.Generation(), req.Timespan, req.Owner, req.Page)
	if cached, ok := s.views.Get(key); ok {
		return cached, nil
	}

	ts := s.timeSelector(req.Timespan)
	owner := core.AllOwners()
	if req.Owner != "" && req.Owner != OwnerAll {
		owner = core.Owner(req.Owner)
	}

	filtered := core.FilterPurchases(rows, ts, owner, core.FilterConfig{
		Now:      s.settings.Now().UTC(),
		Excluded: s.settings.Excluded,
	})

	pageRows, pageCount := core.Paginate(filtered, req.Page, s.settings.PageSize)
	summary := core.Summarize(filtered)

	budgets := s.settings.SharedBudgets
	if !owner.All() {
		budgets = s.settings.OwnerBudgets
	}

	result := ViewResult{
		Rows:        pageRows,
		Page:        clampPage(req.Page, pageCount),
		PageCount:   pageCount,
		Summary:     summary,
		Budgets:     core.EvaluateBudgets(summary, budgets),
		LastUpdated: s.data.LastUpdated(),
	}
	s.views.Set(key, result)
	return result, nil
}

// Timespans lists the selectable periods: the rolling window first, then
// every month present in the data, oldest first.
func (s *DashboardService) Timespans(ctx context.Context) ([]string, error) {
	rows, err := s.data.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return append([]string{s.settings.RollingLabel}, core.MonthLabels(rows)...), nil
}

func (s *DashboardService) timeSelector(timespan string) core.TimeSelector {
	if timespan == "" || timespan == s.settings.RollingLabel {
		return core.RollingWindow(s.settings.WindowDays)
	}
	return core.NamedPeriod(timespan)
}

func clampPage(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}
