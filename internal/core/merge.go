package core

// Merge combines the base table with the override table. The result has the
// same row count and identifier set as base: for each row, the amount and
// primary category are replaced when the matching override carries them, and
// every other field always comes from base. Overrides whose id no longer
// exists in base are ignored. Merge is a pure function of its inputs.
func Merge(base []Transaction, overrides []Override) []Transaction {
	out := make([]Transaction, len(base))
	if len(overrides) == 0 {
		copy(out, base)
		return out
	}

	byID := make(map[string]Override, len(overrides))
	for _, o := range overrides {
		byID[o.TransactionID] = o
	}

	for i, t := range base {
		if o, ok := byID[t.ID]; ok {
			if o.Amount != nil {
				t.Amount = *o.Amount
			}
			if o.Category != nil {
				t.Category = Category(*o.Category)
			}
		}
		out[i] = t
	}
	return out
}
