// Package services holds the client session: which tab is open, what each
// view currently shows, and the fetch-or-serve-from-cache flows behind the
// views, plus the mutation coordinator that keeps those caches honest.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chitieu/internal/cache"
	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/pagination"
)

// Tab is a top-level screen. Exactly one is active.
type Tab string

const (
	TabDaily    Tab = "daily"
	TabCharts   Tab = "charts"
	TabMonthly  Tab = "monthly"
	TabSearch   Tab = "search"
	TabKeywords Tab = "keywords"
)

func ParseTab(s string) (Tab, error) {
	switch t := Tab(s); t {
	case TabDaily, TabCharts, TabMonthly, TabSearch, TabKeywords:
		return t, nil
	}
	return "", core.Invalid("tab", ErrUnknownTab)
}

// View identifies one fetchable view. Daily, monthly, search and category
// detail are paginated.
type View string

const (
	ViewDaily          View = "daily"
	ViewMonthly        View = "monthly"
	ViewSearch         View = "search"
	ViewCategoryDetail View = "category"
	ViewChart          View = "chart"
	ViewKeywords       View = "keywords"
)

var paginatedViews = []View{ViewDaily, ViewMonthly, ViewSearch, ViewCategoryDetail}

// ParsePaginatedView accepts the views Page can move through.
func ParsePaginatedView(s string) (View, error) {
	for _, v := range paginatedViews {
		if string(v) == s {
			return v, nil
		}
	}
	return "", core.Invalid("view", ErrNotPaginated)
}

const categoriesKey = "categories"

type Options struct {
	Remote    Remote
	Publisher Publisher
	Logger    *log.Logger
	// Now is the session clock. Defaults to time.Now.
	Now      func() time.Time
	PageSize int
	// StaleGuard drops fetch results overtaken by a newer fetch of the
	// same view instead of committing them.
	StaleGuard bool
	// CategoryTTL bounds how long the category list is reused.
	CategoryTTL time.Duration
}

// Session is the state of one user session. It is safe for concurrent use;
// no lock is held across a remote call.
type Session struct {
	id         string
	remote     Remote
	publisher  Publisher
	logger     *log.Logger
	mutLogger  *log.Logger
	now        func() time.Time
	pageSize   int
	staleGuard bool

	cache      *cache.Store
	categories *cache.LRUCache[[]string]
	sweeper    *cache.Manager
	cursors    map[View]*pagination.Cursor

	mu          sync.Mutex
	tab         Tab
	state       State
	dailyDate   string // DD/MM/YYYY
	monthYear   int
	monthMonth  int
	searchQuery *core.SearchQuery
	category    string
	keywords    []core.KeywordSet
	generations map[View]uint64
}

func NewSession(opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.PageSize < 1 {
		opts.PageSize = pagination.DefaultSize
	}
	if opts.CategoryTTL <= 0 {
		opts.CategoryTTL = 10 * time.Minute
	}

	s := &Session{
		id:          uuid.NewString(),
		remote:      opts.Remote,
		publisher:   opts.Publisher,
		logger:      opts.Logger.WithComponent(log.ComponentSession),
		mutLogger:   opts.Logger.WithComponent(log.ComponentMutation),
		now:         opts.Now,
		pageSize:    opts.PageSize,
		staleGuard:  opts.StaleGuard,
		cache:       cache.NewStore(),
		categories:  cache.NewLRUCache[[]string](1, opts.CategoryTTL),
		sweeper:     cache.NewManager(),
		cursors:     make(map[View]*pagination.Cursor, len(paginatedViews)),
		tab:         TabDaily,
		state:       StateIdle,
		generations: make(map[View]uint64),
	}
	for _, v := range paginatedViews {
		s.cursors[v] = pagination.NewCursor(opts.PageSize)
	}

	s.sweeper.Register(s.categories)
	s.sweeper.OnSweep(func(removed int) {
		s.logger.Debug("Expired category list dropped", log.FieldCount, removed)
	})
	s.sweeper.StartCleanup(opts.CategoryTTL)
	return s
}

// ID identifies the session in published changes.
func (s *Session) ID() string { return s.id }

func (s *Session) SheetID() string { return s.remote.SheetID() }

// InvalidateViews drops the cached views a transaction change can affect,
// as a local mutation would. Category details stay.
func (s *Session) InvalidateViews(ctx context.Context, reason string) {
	s.cache.InvalidateAfterMutation()
	s.logger.DebugContext(ctx, "View caches invalidated", "reason", reason)
}

// Close stops background cache maintenance.
func (s *Session) Close() {
	s.sweeper.Stop()
}

// Cache exposes the view caches, mainly for inspection.
func (s *Session) Cache() *cache.Store { return s.cache }

func (s *Session) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

func (s *Session) setTab(t Tab) {
	s.mu.Lock()
	s.tab = t
	s.mu.Unlock()
}

// begin starts a fetch of v and returns its generation.
func (s *Session) begin(v View) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[v]++
	return s.generations[v]
}

// commit runs apply unless the stale guard is on and a newer fetch of v has
// started since gen.
func (s *Session) commit(v View, gen uint64, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleGuard && s.generations[v] != gen {
		s.logger.Debug("Discarding superseded result", log.FieldView, string(v))
		return ErrSuperseded
	}
	apply()
	return nil
}

// window clamps the cursor of v into the dataset before computing the
// navigation state. totalPages below 1 is derived from total.
func (s *Session) window(v View, total, totalPages int) pagination.Window {
	c := s.cursors[v]
	w := c.WindowOf(total, totalPages)
	if w.Page > w.TotalPages {
		c.Set(w.TotalPages)
		w = c.WindowOf(total, totalPages)
	}
	return w
}

func (s *Session) fetchFailed(ctx context.Context, v View, err error) {
	s.logger.LogError(ctx, "Fetch failed", err, log.OpFetch,
		log.NewFields().WithView(string(v)).WithErrorKind(string(Kind(err))))
}

func (s *Session) cacheHit(ctx context.Context, slot cache.Slot, key string) {
	s.logger.DebugContext(ctx, "Serving from cache", log.NewFields().WithCache(string(slot), key, true).ToSlice()...)
}

// Categories lists the transaction categories, reusing the last answer
// until it expires.
func (s *Session) Categories(ctx context.Context) ([]string, error) {
	if cats, ok := s.categories.Get(categoriesKey); ok {
		return append([]string(nil), cats...), nil
	}
	cats, err := s.remote.Categories(ctx)
	if err != nil {
		s.fetchFailed(ctx, "categories", err)
		return nil, err
	}
	s.categories.Set(categoriesKey, append([]string(nil), cats...))
	return cats, nil
}

// Status summarises the session for health output.
type Status struct {
	Tab      Tab                `json:"tab"`
	State    State              `json:"state"`
	Slots    map[cache.Slot]int `json:"slots"`
	Category string             `json:"category,omitempty"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	st := Status{Tab: s.tab, State: s.state, Category: s.category}
	s.mu.Unlock()
	st.Slots = s.cache.Sizes()
	return st
}
