package services

import (
	"context"

	"chitieu/internal/cache"
	"chitieu/internal/core"
	"chitieu/internal/pagination"
)

// TabView is what a tab shows when it is opened without a new fetch.
type TabView struct {
	Tab      Tab               `json:"tab"`
	Search   *SearchView       `json:"search,omitempty"`
	Keywords []core.KeywordSet `json:"keywords,omitempty"`
}

// OpenTab makes t the active tab. The search tab re-shows its cached
// results and the keywords tab the last loaded keyword list.
func (s *Session) OpenTab(t Tab) (TabView, error) {
	if _, err := ParseTab(string(t)); err != nil {
		return TabView{}, err
	}
	s.mu.Lock()
	s.tab = t
	q := s.searchQuery
	kws := cloneKeywordSets(s.keywords)
	s.mu.Unlock()

	tv := TabView{Tab: t}
	switch t {
	case TabSearch:
		if q != nil {
			fp := q.Fingerprint()
			if p, ok := s.cache.Search(fp); ok && len(p.Transactions) > 0 {
				v := s.searchView(fp, p, true)
				tv.Search = &v
			}
		}
	case TabKeywords:
		tv.Keywords = kws
	}
	return tv, nil
}

// Direction is a page navigation step.
type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Next, Prev:
		return d, nil
	}
	return "", core.Invalid("direction", ErrInvalidDirection)
}

// PageResult is the re-rendered view after a page move. Exactly one of the
// view fields is set.
type PageResult struct {
	View    View                `json:"view"`
	Moved   bool                `json:"moved"`
	Daily   *DailyView          `json:"daily,omitempty"`
	Monthly *MonthlyView        `json:"monthly,omitempty"`
	Search  *SearchView         `json:"search,omitempty"`
	Detail  *CategoryDetailView `json:"detail,omitempty"`
}

// Page moves the cursor of a paginated view one step and re-renders it.
// Moves past either end are refused; the view is still returned.
func (s *Session) Page(ctx context.Context, v View, dir Direction) (PageResult, error) {
	c, ok := s.cursors[v]
	if !ok {
		return PageResult{}, core.Invalid("view", ErrNotPaginated)
	}
	step := func(total, totalPages int) bool {
		if dir == Prev {
			return c.Prev()
		}
		if totalPages > 0 {
			return c.NextOf(totalPages)
		}
		return c.Next(total)
	}

	s.mu.Lock()
	daily, year, month, q, category := s.dailyDate, s.monthYear, s.monthMonth, s.searchQuery, s.category
	s.mu.Unlock()

	res := PageResult{View: v}
	switch v {
	case ViewDaily:
		if daily == "" {
			return PageResult{}, core.Invalid("view", ErrNothingToPage)
		}
		txs, _ := s.cache.Daily(daily)
		res.Moved = step(len(txs), 0)
		view, err := s.loadDaily(ctx, daily)
		if err != nil {
			return PageResult{}, err
		}
		res.Daily = &view
	case ViewMonthly:
		if month == 0 {
			return PageResult{}, core.Invalid("view", ErrNothingToPage)
		}
		txs, _ := s.cache.Monthly(cache.MonthlyKey(year, month))
		res.Moved = step(len(txs), 0)
		view, err := s.loadMonthly(ctx, year, month)
		if err != nil {
			return PageResult{}, err
		}
		res.Monthly = &view
	case ViewSearch:
		if q == nil {
			return PageResult{}, core.Invalid("view", ErrNothingToPage)
		}
		totalPages := 1
		if p, ok := s.cache.Search(q.Fingerprint()); ok {
			totalPages = p.TotalPages
		}
		res.Moved = step(0, totalPages)
		view, err := s.loadSearch(ctx, *q)
		if err != nil {
			return PageResult{}, err
		}
		res.Search = &view
	case ViewCategoryDetail:
		active, ok := s.cache.ActiveChart()
		if category == "" || !ok {
			return PageResult{}, core.Invalid("view", ErrNothingToPage)
		}
		d, _ := s.cache.CategoryDetail(category)
		res.Moved = step(len(d.Transactions), 0)
		view, err := s.loadCategoryDetail(ctx, category, active)
		if err != nil {
			return PageResult{}, err
		}
		res.Detail = &view
	}
	return res, nil
}

// Cursor exposes the pagination state of a paginated view.
func (s *Session) Cursor(v View) (*pagination.Cursor, bool) {
	c, ok := s.cursors[v]
	return c, ok
}
