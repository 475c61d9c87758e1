package core

import (
	"sort"
	"strings"
	"time"
)

type (
	// TimeSelector picks rows either by a rolling window anchored to an
	// evaluation instant or by an exact month label such as "March 2025".
	TimeSelector struct {
		Rolling bool
		Days    int    // rolling mode: window length, inclusive
		Label   string // named mode: month label
	}

	// OwnerSelector restricts rows to one account owner. The zero value
	// means "all owners".
	OwnerSelector struct {
		Name string
	}

	// FilterConfig carries the evaluation instant and the essential
	// categories excluded from per-owner views.
	FilterConfig struct {
		Now      time.Time
		Excluded []Category
	}
)

// RollingWindow selects rows dated within the last n days, inclusive.
func RollingWindow(n int) TimeSelector {
	return TimeSelector{Rolling: true, Days: n}
}

// NamedPeriod selects rows whose month label equals the given label.
func NamedPeriod(label string) TimeSelector {
	return TimeSelector{Label: label}
}

// AllOwners selects rows regardless of account.
func AllOwners() OwnerSelector {
	return OwnerSelector{}
}

// Owner selects rows belonging to the named owner.
func Owner(name string) OwnerSelector {
	return OwnerSelector{Name: name}
}

// All reports whether the selector spans every owner.
func (o OwnerSelector) All() bool {
	return o.Name == ""
}

// FilterPurchases returns the spending subset of rows: outflows only
// (amount > 0), within the time selector, and matching the owner selector.
// When a specific owner is selected the row's account id must contain the
// owner name and the category must not be in the essential exclusion list,
// so per-owner views show only discretionary spending. The result is sorted
// by date descending with id as tie-break, so output order is deterministic.
//
// The account match is a substring test because the account ids of this
// deployment embed the owner label. That is fragile against arbitrary id
// formats; revisit if the sync ever emits opaque ids.
func FilterPurchases(rows []Transaction, ts TimeSelector, owner OwnerSelector, cfg FilterConfig) []Transaction {
	// Rows carry dates, not instants, so the window cutoff is truncated to
	// its calendar day: a row dated exactly Days ago is included whatever
	// the clock reads at evaluation time.
	var cutoff time.Time
	if ts.Rolling {
		edge := cfg.Now.AddDate(0, 0, -ts.Days)
		cutoff = time.Date(edge.Year(), edge.Month(), edge.Day(), 0, 0, 0, 0, time.UTC)
	}

	excluded := make(map[Category]struct{}, len(cfg.Excluded))
	for _, c := range cfg.Excluded {
		excluded[c] = struct{}{}
	}

	out := make([]Transaction, 0, len(rows))
	for _, t := range rows {
		if t.Amount.Cents <= 0 {
			continue
		}
		if ts.Rolling {
			if t.Date.Before(cutoff) {
				continue
			}
		} else if t.Date.MonthLabel() != ts.Label {
			continue
		}
		if !owner.All() {
			if !strings.Contains(t.AccountID, owner.Name) {
				continue
			}
			if _, skip := excluded[t.Category]; skip {
				continue
			}
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MonthLabels returns the distinct month labels present in rows, oldest
// first, matching the order the period dropdown presents them.
func MonthLabels(rows []Transaction) []string {
	type month struct {
		key   string // sortable YYYY-MM
		label string
	}
	seen := make(map[string]struct{})
	months := make([]month, 0, 12)
	for _, t := range rows {
		key := t.Date.Format("2006-01")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, month{key: key, label: t.Date.MonthLabel()})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].key < months[j].key })

	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.label
	}
	return labels
}
