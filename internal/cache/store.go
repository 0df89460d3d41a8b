package cache

import (
	"fmt"
	"sync"

	"chitieu/internal/core"
)

// Slot names one independently invalidated region of a Store.
type Slot string

const (
	SlotDaily          Slot = "daily"
	SlotChart          Slot = "chart"
	SlotMonthly        Slot = "monthly"
	SlotSearch         Slot = "search"
	SlotCategoryDetail Slot = "category-detail"
	SlotAll            Slot = "all"
)

// Store holds the result sets of one session's views, keyed by query
// fingerprint. Entries never expire; they only go away through Invalidate,
// InvalidateAfterMutation or ResetCategoryDetails.
//
// Payload slices are copied in and out so a cached batch cannot be changed
// by a caller.
type Store struct {
	daily   *MapCache[[]core.Transaction]
	monthly *MapCache[[]core.Transaction]
	search  *MapCache[core.SearchPage]
	details *MapCache[core.CategoryDetail]

	mu           sync.Mutex
	chartMonthly *core.ChartData
	chartYearly  *core.ChartData
	chartCustom  map[string]core.ChartData
	activeChart  *core.ChartData
}

func NewStore() *Store {
	return &Store{
		daily:       NewMapCache[[]core.Transaction](),
		monthly:     NewMapCache[[]core.Transaction](),
		search:      NewMapCache[core.SearchPage](),
		details:     NewMapCache[core.CategoryDetail](),
		chartCustom: make(map[string]core.ChartData),
	}
}

// MonthlyKey is the monthly-expenses fingerprint "year-month".
func MonthlyKey(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

// CustomChartKey is the custom chart fingerprint "start-end".
func CustomChartKey(start, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}

func (s *Store) Daily(date string) ([]core.Transaction, bool) {
	txs, ok := s.daily.Get(date)
	return core.CloneTransactions(txs), ok
}

func (s *Store) PutDaily(date string, txs []core.Transaction) {
	s.daily.Set(date, cloneNonNil(txs))
}

func (s *Store) Monthly(key string) ([]core.Transaction, bool) {
	txs, ok := s.monthly.Get(key)
	return core.CloneTransactions(txs), ok
}

func (s *Store) PutMonthly(key string, txs []core.Transaction) {
	s.monthly.Set(key, cloneNonNil(txs))
}

func (s *Store) Search(fingerprint string) (core.SearchPage, bool) {
	p, ok := s.search.Get(fingerprint)
	p.Transactions = core.CloneTransactions(p.Transactions)
	return p, ok
}

func (s *Store) PutSearch(fingerprint string, p core.SearchPage) {
	p.Transactions = cloneNonNil(p.Transactions)
	s.search.Set(fingerprint, p)
}

func (s *Store) CategoryDetail(category string) (core.CategoryDetail, bool) {
	d, ok := s.details.Get(category)
	return cloneDetail(d), ok
}

func (s *Store) PutCategoryDetail(category string, d core.CategoryDetail) {
	s.details.Set(category, cloneDetail(d))
}

// Chart looks up the payload of a chart mode. start and end only matter
// for the custom mode.
func (s *Store) Chart(mode core.ChartMode, start, end int) (core.ChartData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p *core.ChartData
	switch mode {
	case core.ChartMonthly:
		p = s.chartMonthly
	case core.ChartYearly:
		p = s.chartYearly
	case core.ChartCustom:
		if d, ok := s.chartCustom[CustomChartKey(start, end)]; ok {
			p = &d
		}
	}
	if p == nil {
		return core.ChartData{}, false
	}
	return cloneChart(*p), true
}

func (s *Store) PutChart(mode core.ChartMode, d core.ChartData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d = cloneChart(d)
	switch mode {
	case core.ChartMonthly:
		s.chartMonthly = &d
	case core.ChartYearly:
		s.chartYearly = &d
	case core.ChartCustom:
		s.chartCustom[CustomChartKey(d.StartMonth, d.EndMonth)] = d
	}
}

// SetActiveChart records the chart payload last shown. Category drill-downs
// take their month range from it.
func (s *Store) SetActiveChart(d core.ChartData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d = cloneChart(d)
	s.activeChart = &d
}

func (s *Store) ActiveChart() (core.ChartData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeChart == nil {
		return core.ChartData{}, false
	}
	return cloneChart(*s.activeChart), true
}

// Invalidate empties one slot, or every slot for SlotAll. Clearing the chart
// slot leaves the active chart pointer alone.
func (s *Store) Invalidate(slot Slot) {
	switch slot {
	case SlotDaily:
		s.daily.Clear()
	case SlotMonthly:
		s.monthly.Clear()
	case SlotSearch:
		s.search.Clear()
	case SlotCategoryDetail:
		s.details.Clear()
	case SlotChart:
		s.mu.Lock()
		s.chartMonthly = nil
		s.chartYearly = nil
		clear(s.chartCustom)
		s.mu.Unlock()
	case SlotAll:
		for _, sl := range []Slot{SlotDaily, SlotChart, SlotMonthly, SlotSearch, SlotCategoryDetail} {
			s.Invalidate(sl)
		}
	}
}

// InvalidateAfterMutation clears everything a transaction change can make
// stale. Category details are kept; they belong to the chart filter that
// produced them.
func (s *Store) InvalidateAfterMutation() {
	s.Invalidate(SlotDaily)
	s.Invalidate(SlotMonthly)
	s.Invalidate(SlotSearch)
	s.Invalidate(SlotChart)
}

// ResetCategoryDetails runs when a chart query goes to the network.
func (s *Store) ResetCategoryDetails() {
	s.details.Clear()
}

// Sizes reports the entry count per slot. The chart slot counts the
// monthly and yearly singletons plus every custom range.
func (s *Store) Sizes() map[Slot]int {
	s.mu.Lock()
	charts := len(s.chartCustom)
	if s.chartMonthly != nil {
		charts++
	}
	if s.chartYearly != nil {
		charts++
	}
	s.mu.Unlock()

	return map[Slot]int{
		SlotDaily:          s.daily.Size(),
		SlotChart:          charts,
		SlotMonthly:        s.monthly.Size(),
		SlotSearch:         s.search.Size(),
		SlotCategoryDetail: s.details.Size(),
	}
}

func cloneNonNil(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return []core.Transaction{}
	}
	return core.CloneTransactions(txs)
}

func cloneDetail(d core.CategoryDetail) core.CategoryDetail {
	d.ChartData = append([]core.CategoryMonthAmount(nil), d.ChartData...)
	d.Transactions = core.CloneTransactions(d.Transactions)
	return d
}

func cloneChart(d core.ChartData) core.ChartData {
	d.MonthlyData = append([]core.MonthlyPoint(nil), d.MonthlyData...)
	d.ExpenseCategoryData = append([]core.CategoryAmount(nil), d.ExpenseCategoryData...)
	return d
}
