package services

import (
	"context"
	"strings"

	"chitieu/internal/cache"
	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/pagination"
)

// DailyView is one page of a day's transactions with the day's totals.
type DailyView struct {
	Date         string             `json:"date"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      core.Summary       `json:"summary"`
	Window       pagination.Window  `json:"window"`
	Cached       bool               `json:"cached"`
}

// MonthlyView is one page of a month's transactions with the month's totals.
type MonthlyView struct {
	Year         int                `json:"year"`
	Month        int                `json:"month"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      core.Summary       `json:"summary"`
	Window       pagination.Window  `json:"window"`
	Cached       bool               `json:"cached"`
}

// ChartView is one chart range with its income, expense and balance totals.
type ChartView struct {
	Mode    core.ChartMode `json:"mode"`
	Data    core.ChartData `json:"data"`
	Summary core.Summary   `json:"summary"`
	Cached  bool           `json:"cached"`
}

// SearchView pages through the cached server page with the client page
// size; the page count is the server's.
type SearchView struct {
	Fingerprint       string             `json:"fingerprint"`
	Transactions      []core.Transaction `json:"transactions"`
	TotalTransactions int                `json:"totalTransactions"`
	Window            pagination.Window  `json:"window"`
	Cached            bool               `json:"cached"`
}

// Daily shows the transactions of isoDate (YYYY-MM-DD).
func (s *Session) Daily(ctx context.Context, isoDate string) (DailyView, error) {
	if strings.TrimSpace(isoDate) == "" {
		return DailyView{}, core.Invalid("date", core.ErrMissingDate)
	}
	day, err := core.ParseISODate(isoDate)
	if err != nil {
		return DailyView{}, err
	}
	key := core.FormatDisplay(day)

	s.mu.Lock()
	s.tab = TabDaily
	if s.dailyDate != key {
		s.dailyDate = key
		s.cursors[ViewDaily].Reset()
	}
	s.mu.Unlock()
	return s.loadDaily(ctx, key)
}

func (s *Session) loadDaily(ctx context.Context, key string) (DailyView, error) {
	if txs, ok := s.cache.Daily(key); ok {
		s.cacheHit(ctx, cache.SlotDaily, key)
		return s.dailyView(key, txs, true), nil
	}

	iso, err := core.DisplayToISO(key)
	if err != nil {
		return DailyView{}, err
	}
	gen := s.begin(ViewDaily)
	txs, err := s.remote.TransactionsByDate(ctx, iso)
	if err != nil {
		s.fetchFailed(ctx, ViewDaily, err)
		return DailyView{}, err
	}
	if err := s.commit(ViewDaily, gen, func() { s.cache.PutDaily(key, txs) }); err != nil {
		return DailyView{}, err
	}
	s.logger.DebugContext(ctx, "Daily transactions fetched", log.FieldDate, key, log.FieldCount, len(txs))
	return s.dailyView(key, txs, false), nil
}

func (s *Session) dailyView(key string, txs []core.Transaction, cached bool) DailyView {
	w := s.window(ViewDaily, len(txs), 0)
	return DailyView{
		Date:         key,
		Transactions: pagination.Slice(txs, w.Page, w.Size),
		Summary:      core.Summarize(txs),
		Window:       w,
		Cached:       cached,
	}
}

// Monthly shows the transactions of month in the current year.
func (s *Session) Monthly(ctx context.Context, month int) (MonthlyView, error) {
	if err := core.ValidateMonth(month); err != nil {
		return MonthlyView{}, err
	}
	year := s.now().Year()

	s.mu.Lock()
	s.tab = TabMonthly
	if s.monthYear != year || s.monthMonth != month {
		s.monthYear, s.monthMonth = year, month
		s.cursors[ViewMonthly].Reset()
	}
	s.mu.Unlock()
	return s.loadMonthly(ctx, year, month)
}

func (s *Session) loadMonthly(ctx context.Context, year, month int) (MonthlyView, error) {
	key := cache.MonthlyKey(year, month)
	if txs, ok := s.cache.Monthly(key); ok {
		s.cacheHit(ctx, cache.SlotMonthly, key)
		return s.monthlyView(year, month, txs, true), nil
	}

	gen := s.begin(ViewMonthly)
	txs, err := s.remote.TransactionsByMonth(ctx, month, year)
	if err != nil {
		s.fetchFailed(ctx, ViewMonthly, err)
		return MonthlyView{}, err
	}
	if err := s.commit(ViewMonthly, gen, func() { s.cache.PutMonthly(key, txs) }); err != nil {
		return MonthlyView{}, err
	}
	return s.monthlyView(year, month, txs, false), nil
}

func (s *Session) monthlyView(year, month int, txs []core.Transaction, cached bool) MonthlyView {
	w := s.window(ViewMonthly, len(txs), 0)
	return MonthlyView{
		Year:         year,
		Month:        month,
		Transactions: pagination.Slice(txs, w.Page, w.Size),
		Summary:      core.Summarize(txs),
		Window:       w,
		Cached:       cached,
	}
}

// Chart loads the income/expense chart for a filter mode. A network fetch
// becomes the active chart and drops every cached category drill-down; a
// cache hit only becomes the active chart.
func (s *Session) Chart(ctx context.Context, mode core.ChartMode, start, end int) (ChartView, error) {
	start, end, err := core.ChartRange(mode, s.now(), start, end)
	if err != nil {
		return ChartView{}, err
	}

	s.mu.Lock()
	s.tab = TabCharts
	s.category = ""
	s.mu.Unlock()

	if d, ok := s.cache.Chart(mode, start, end); ok {
		s.cacheHit(ctx, cache.SlotChart, string(mode)+":"+cache.CustomChartKey(start, end))
		s.cache.SetActiveChart(d)
		return ChartView{Mode: mode, Data: d, Summary: core.SummarizeMonths(d.MonthlyData), Cached: true}, nil
	}

	gen := s.begin(ViewChart)
	monthly, err := s.remote.MonthlyData(ctx, start, end)
	if err != nil {
		s.fetchFailed(ctx, ViewChart, err)
		return ChartView{}, err
	}
	byCategory, err := s.remote.ExpensesByCategory(ctx, start, end)
	if err != nil {
		s.fetchFailed(ctx, ViewChart, err)
		return ChartView{}, err
	}
	d := core.ChartData{
		MonthlyData:         monthly,
		ExpenseCategoryData: byCategory,
		StartMonth:          start,
		EndMonth:            end,
	}
	err = s.commit(ViewChart, gen, func() {
		s.cache.PutChart(mode, d)
		s.cache.SetActiveChart(d)
		s.cache.ResetCategoryDetails()
	})
	if err != nil {
		return ChartView{}, err
	}
	return ChartView{Mode: mode, Data: d, Summary: core.SummarizeMonths(d.MonthlyData)}, nil
}

// Search runs q for its year (the current year when unset). A query with
// no criteria is refused without contacting the store.
func (s *Session) Search(ctx context.Context, q core.SearchQuery) (SearchView, error) {
	if err := q.Validate(); err != nil {
		return SearchView{}, err
	}
	if q.Year == 0 {
		q.Year = s.now().Year()
	}

	s.mu.Lock()
	s.tab = TabSearch
	if s.searchQuery == nil || s.searchQuery.Fingerprint() != q.Fingerprint() {
		s.searchQuery = &q
		s.cursors[ViewSearch].Reset()
	}
	s.mu.Unlock()
	return s.loadSearch(ctx, q)
}

func (s *Session) loadSearch(ctx context.Context, q core.SearchQuery) (SearchView, error) {
	fp := q.Fingerprint()
	if p, ok := s.cache.Search(fp); ok {
		s.cacheHit(ctx, cache.SlotSearch, fp)
		return s.searchView(fp, p, true), nil
	}

	cursor := s.cursors[ViewSearch]
	gen := s.begin(ViewSearch)
	p, err := s.remote.SearchTransactions(ctx, q, cursor.Page(), cursor.Size())
	if err != nil {
		s.fetchFailed(ctx, ViewSearch, err)
		return SearchView{}, err
	}
	err = s.commit(ViewSearch, gen, func() {
		s.cache.PutSearch(fp, p)
		cursor.Set(p.CurrentPage)
	})
	if err != nil {
		return SearchView{}, err
	}
	s.logger.DebugContext(ctx, "Search completed",
		log.FieldKey, fp, log.FieldCount, p.TotalTransactions, log.FieldPage, p.CurrentPage)
	return s.searchView(fp, p, false), nil
}

func (s *Session) searchView(fp string, p core.SearchPage, cached bool) SearchView {
	w := s.window(ViewSearch, p.TotalTransactions, p.TotalPages)
	return SearchView{
		Fingerprint:       fp,
		Transactions:      pagination.Slice(p.Transactions, w.Page, w.Size),
		TotalTransactions: p.TotalTransactions,
		Window:            w,
		Cached:            cached,
	}
}
