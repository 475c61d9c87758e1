package core

import "sort"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// Summary holds the aggregates derived from a filtered row set.
type Summary struct {
	Total      Money
	ByCategory []CategoryAmount
}

// Summarize computes per-category sums and the grand total over rows.
// Categories are ordered by amount descending, then name, so the result is
// deterministic for identical input.
func Summarize(rows []Transaction) Summary {
	sums := make(map[Category]int64)
	var total int64
	for _, t := range rows {
		sums[t.Category] += t.Amount.Cents
		total += t.Amount.Cents
	}

	byCategory := make([]CategoryAmount, 0, len(sums))
	for c, cents := range sums {
		byCategory = append(byCategory, CategoryAmount{Category: c, Amount: Money{Cents: cents}})
	}
	sort.Slice(byCategory, func(i, j int) bool {
		if byCategory[i].Amount.Cents != byCategory[j].Amount.Cents {
			return byCategory[i].Amount.Cents > byCategory[j].Amount.Cents
		}
		return byCategory[i].Category < byCategory[j].Category
	})

	return Summary{Total: Money{Cents: total}, ByCategory: byCategory}
}

// CategorySum returns the aggregate for one category, zero when absent.
func (s Summary) CategorySum(c Category) Money {
	for _, ca := range s.ByCategory {
		if ca.Category == c {
			return ca.Amount
		}
	}
	return Money{}
}

// Paginate slices rows into 1-based fixed-size pages. Page count is
// ceil(len/size) with a minimum of one page even for an empty set; an
// out-of-range page clamps to the nearest valid page.
func Paginate(rows []Transaction, page, size int) ([]Transaction, int) {
	if size < 1 {
		size = 1
	}
	pages := (len(rows) + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return nil, pages
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], pages
}
