package core

import (
	"strconv"
	"strings"
)

// FilterByCategory returns the transactions whose category equals category
// exactly. The input is not modified.
func FilterByCategory(txs []Transaction, category string) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// MonthRange lists start..end inclusive.
func MonthRange(start, end int) []int {
	if end < start {
		return nil
	}
	months := make([]int, 0, end-start+1)
	for m := start; m <= end; m++ {
		months = append(months, m)
	}
	return months
}

// Matches reports whether tx satisfies q: same year, content containing
// q.Content ignoring case, exact amount and exact category. Empty criteria
// match everything.
func (q SearchQuery) Matches(tx Transaction) bool {
	d, err := ParseDisplayDate(tx.Date)
	if err != nil || d.Year() != q.Year {
		return false
	}
	if q.Content != "" && !strings.Contains(strings.ToLower(tx.Content), strings.ToLower(q.Content)) {
		return false
	}
	if q.Amount != "" && strconv.FormatInt(int64(tx.Amount), 10) != q.Amount {
		return false
	}
	if q.Category != "" && tx.Category != q.Category {
		return false
	}
	return true
}
