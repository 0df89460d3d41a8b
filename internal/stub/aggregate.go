package stub

import (
	"context"
	"sort"

	"chitieu/internal/core"
)

func (s *Server) monthlyData(ctx context.Context, year, start, end int) ([]core.MonthlyPoint, error) {
	points := make([]core.MonthlyPoint, 0, end-start+1)
	for _, m := range core.MonthRange(start, end) {
		txs, err := s.store.TransactionsByMonth(ctx, year, m)
		if err != nil {
			return nil, err
		}
		sum := core.Summarize(txs)
		points = append(points, core.MonthlyPoint{Month: m, Income: sum.Income, Expense: sum.Expense})
	}
	return points, nil
}

// expensesByCategory totals expenses per category over the months, largest
// first. Categories without expenses are left out.
func (s *Server) expensesByCategory(ctx context.Context, year, start, end int) ([]core.CategoryAmount, error) {
	totals := make(map[string]core.Dong)
	for _, m := range core.MonthRange(start, end) {
		txs, err := s.store.TransactionsByMonth(ctx, year, m)
		if err != nil {
			return nil, err
		}
		for _, t := range txs {
			if t.Type == core.Expense {
				totals[t.Category] += t.Amount
			}
		}
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for _, c := range sortedKeys(totals) {
		out = append(out, core.CategoryAmount{Category: c, Amount: totals[c]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

// categoryMonthlyData has one entry per month, zero included.
func (s *Server) categoryMonthlyData(ctx context.Context, category string, year, start, end int) ([]core.CategoryMonthAmount, error) {
	if category == "" {
		return nil, core.Invalid("category", core.ErrEmptyCategory)
	}
	out := make([]core.CategoryMonthAmount, 0, end-start+1)
	for _, m := range core.MonthRange(start, end) {
		txs, err := s.store.TransactionsByMonth(ctx, year, m)
		if err != nil {
			return nil, err
		}
		var total core.Dong
		for _, t := range core.FilterByCategory(txs, category) {
			if t.Type == core.Expense {
				total += t.Amount
			}
		}
		out = append(out, core.CategoryMonthAmount{Month: m, Amount: total})
	}
	return out, nil
}
