package core

import "sort"

// Budgets maps envelope categories to spending limits. The CategoryTotal
// sentinel covers overall spending.
type Budgets map[Category]Money

// BudgetState classifies an envelope for presentation.
type BudgetState string

const (
	BudgetOver BudgetState = "over"
	BudgetLow  BudgetState = "low"
	BudgetOK   BudgetState = "ok"
)

// lowWaterPercent is the remaining-budget threshold below which an envelope
// is flagged "low".
const lowWaterPercent = 20.0

// BudgetStatus is the evaluated position of one envelope.
type BudgetStatus struct {
	Category    Category
	Limit       Money
	Spent       Money
	AmountLeft  Money
	PercentLeft float64 // clamped to [0,100]; 0 when the limit is not positive
	OverBudget  bool
	State       BudgetState
}

// EvaluateBudgets maps the summary's aggregates against the budget table.
// The CategoryTotal envelope, when configured, uses the grand total and is
// reported first; the remaining envelopes follow in category order.
func EvaluateBudgets(s Summary, budgets Budgets) []BudgetStatus {
	cats := make([]Category, 0, len(budgets))
	for c := range budgets {
		if c == CategoryTotal {
			continue
		}
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	out := make([]BudgetStatus, 0, len(budgets))
	if limit, ok := budgets[CategoryTotal]; ok {
		out = append(out, evaluateEnvelope(CategoryTotal, limit, s.Total))
	}
	for _, c := range cats {
		out = append(out, evaluateEnvelope(c, budgets[c], s.CategorySum(c)))
	}
	return out
}

func evaluateEnvelope(c Category, limit, spent Money) BudgetStatus {
	left := Money{Cents: limit.Cents - spent.Cents}
	over := left.Cents < 0

	var percentLeft float64
	if limit.Cents > 0 {
		percentLeft = 100 * float64(left.Cents) / float64(limit.Cents)
		if percentLeft < 0 {
			percentLeft = 0
		}
		if percentLeft > 100 {
			percentLeft = 100
		}
	}

	state := BudgetOK
	switch {
	case over:
		state = BudgetOver
	case percentLeft <= lowWaterPercent:
		state = BudgetLow
	}

	return BudgetStatus{
		Category:    c,
		Limit:       limit,
		Spent:       spent,
		AmountLeft:  left,
		PercentLeft: percentLeft,
		OverBudget:  over,
		State:       state,
	}
}
