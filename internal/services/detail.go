package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"chitieu/internal/cache"
	"chitieu/internal/core"
	"chitieu/internal/pagination"
)

// CategoryDetailView is the drill-down of one pie slice over the active
// chart's month range.
type CategoryDetailView struct {
	Category     string                     `json:"category"`
	StartMonth   int                        `json:"startMonth"`
	EndMonth     int                        `json:"endMonth"`
	ChartData    []core.CategoryMonthAmount `json:"chartData"`
	Transactions []core.Transaction         `json:"transactions"`
	Window       pagination.Window          `json:"window"`
	Cached       bool                       `json:"cached"`
}

// CategoryDetail opens the drill-down for category. Results are cached by
// category name alone until the next chart fetch from the store.
func (s *Session) CategoryDetail(ctx context.Context, category string) (CategoryDetailView, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return CategoryDetailView{}, core.Invalid("category", core.ErrEmptyCategory)
	}
	active, ok := s.cache.ActiveChart()
	if !ok {
		return CategoryDetailView{}, ErrNoActiveChart
	}

	s.mu.Lock()
	s.tab = TabCharts
	s.category = category
	s.mu.Unlock()
	s.cursors[ViewCategoryDetail].Reset()

	return s.loadCategoryDetail(ctx, category, active)
}

func (s *Session) loadCategoryDetail(ctx context.Context, category string, active core.ChartData) (CategoryDetailView, error) {
	if d, ok := s.cache.CategoryDetail(category); ok {
		s.cacheHit(ctx, cache.SlotCategoryDetail, category)
		return s.categoryView(category, active, d, true), nil
	}

	gen := s.begin(ViewCategoryDetail)
	year := s.now().Year()
	var (
		totals []core.CategoryMonthAmount
		txs    []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.remote.CategoryMonthlyData(gctx, category, active.StartMonth, active.EndMonth, year)
		return err
	})
	g.Go(func() error {
		var all []core.Transaction
		for _, m := range core.MonthRange(active.StartMonth, active.EndMonth) {
			month, err := s.remote.TransactionsByMonth(gctx, m, year)
			if err != nil {
				return err
			}
			all = append(all, month...)
		}
		txs = core.FilterByCategory(all, category)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.fetchFailed(ctx, ViewCategoryDetail, err)
		return CategoryDetailView{}, err
	}

	d := core.CategoryDetail{ChartData: totals, Transactions: txs}
	if err := s.commit(ViewCategoryDetail, gen, func() { s.cache.PutCategoryDetail(category, d) }); err != nil {
		return CategoryDetailView{}, err
	}
	return s.categoryView(category, active, d, false), nil
}

func (s *Session) categoryView(category string, active core.ChartData, d core.CategoryDetail, cached bool) CategoryDetailView {
	w := s.window(ViewCategoryDetail, len(d.Transactions), 0)
	return CategoryDetailView{
		Category:     category,
		StartMonth:   active.StartMonth,
		EndMonth:     active.EndMonth,
		ChartData:    d.ChartData,
		Transactions: pagination.Slice(d.Transactions, w.Page, w.Size),
		Window:       w,
		Cached:       cached,
	}
}

// CloseCategoryDetail returns to the chart. Cached drill-downs are kept.
func (s *Session) CloseCategoryDetail() {
	s.mu.Lock()
	s.category = ""
	s.mu.Unlock()
	s.cursors[ViewCategoryDetail].Reset()
}
