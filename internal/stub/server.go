// Package stub serves the remote transaction store protocol from a local
// backend so the client can run without the spreadsheet service.
//
// Reads are GET <api>?action=...&sheetId=..., mutations are JSON POSTs to
// <api> naming the action in the body. Failures are reported the way the
// real store does it: HTTP 200 with {"error": "..."}.
package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chitieu/internal/backend"
	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/middleware/ratelimit"
	"chitieu/internal/middleware/security"
	"chitieu/internal/pagination"
	"chitieu/internal/remote"
)

const (
	APIPath   = "/exec"
	ProxyPath = "/proxy"
)

var (
	errUnknownAction = errors.New("unknown action")
	errWrongSheet    = errors.New("sheet not found")
)

type Options struct {
	// SheetID, when set, is the only sheet id accepted.
	SheetID string
	// Now is the store clock; the current year of aggregations comes from it.
	Now    func() time.Time
	Logger *log.Logger
	// ProxyClient forwards /proxy requests.
	ProxyClient *http.Client
	// ProxyHosts restricts /proxy targets; empty allows any host.
	ProxyHosts []string
	// ProxyRequestsPerMinute limits /proxy per client IP.
	ProxyRequestsPerMinute int
}

type Server struct {
	store       backend.Store
	sheetID     string
	now         func() time.Time
	logger      *log.Logger
	proxyClient *http.Client
	proxyHosts  map[string]bool
	limiter     *ratelimit.Limiter
	detector    *security.Detector

	mu    sync.Mutex
	calls map[string]int
}

func New(store backend.Store, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.ProxyClient == nil {
		opts.ProxyClient = &http.Client{Timeout: 30 * time.Second}
	}
	hosts := make(map[string]bool, len(opts.ProxyHosts))
	for _, h := range opts.ProxyHosts {
		hosts[h] = true
	}
	return &Server{
		store:       store,
		sheetID:     opts.SheetID,
		now:         opts.Now,
		logger:      opts.Logger.WithComponent(log.ComponentStub),
		proxyClient: opts.ProxyClient,
		proxyHosts:  hosts,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.ProxyRequestsPerMinute}),
		detector:    security.NewDetector(),
		calls:       make(map[string]int),
	}
}

// Routes mounts the store at APIPath and the pass-through proxy at ProxyPath.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger), log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))

	r.Get(APIPath, s.handleRead)
	r.Post(APIPath, s.handleMutation)
	r.Options(APIPath, s.handlePreflight)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, nil))
		r.HandleFunc(ProxyPath, s.handleProxy)
	})
	return r
}

// Close stops background work. The backend is owned by the caller.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Calls reports how many requests each action received.
func (s *Server) Calls() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.calls))
	for k, v := range s.calls {
		out[k] = v
	}
	return out
}

func (s *Server) count(action string) {
	s.mu.Lock()
	s.calls[action]++
	s.mu.Unlock()
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	allowCORS(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action := q.Get("action")
	s.count(action)
	ctx := r.Context()

	if err := s.checkSheet(q.Get("sheetId")); err != nil {
		s.fail(w, r, action, err)
		return
	}

	var (
		out any
		err error
	)
	switch action {
	case remote.ActionTransactionsByDate:
		var day time.Time
		if day, err = core.ParseISODate(q.Get("date")); err == nil {
			out, err = s.store.TransactionsByDate(ctx, day)
		}
	case remote.ActionTransactionsByMonth:
		var month, year int
		if month, year, err = monthYear(q.Get("month"), q.Get("year"), s.now()); err == nil {
			out, err = s.store.TransactionsByMonth(ctx, year, month)
		}
	case remote.ActionCategories:
		out, err = s.store.Categories(ctx)
	case remote.ActionMonthlyData:
		var start, end int
		if start, end, err = monthBounds(q.Get("startMonth"), q.Get("endMonth")); err == nil {
			out, err = s.monthlyData(ctx, s.now().Year(), start, end)
		}
	case remote.ActionExpensesByCategory:
		var start, end int
		if start, end, err = monthBounds(q.Get("startMonth"), q.Get("endMonth")); err == nil {
			out, err = s.expensesByCategory(ctx, s.now().Year(), start, end)
		}
	case remote.ActionCategoryMonthlyData:
		var start, end int
		if start, end, err = monthBounds(q.Get("startMonth"), q.Get("endMonth")); err == nil {
			year := atoiDefault(q.Get("year"), s.now().Year())
			out, err = s.categoryMonthlyData(ctx, q.Get("category"), year, start, end)
		}
	case remote.ActionKeywords:
		out, err = s.store.Keywords(ctx)
	case remote.ActionSearchTransactions:
		out, err = s.search(r)
	default:
		err = fmt.Errorf("%w: %q", errUnknownAction, action)
	}
	if err != nil {
		s.fail(w, r, action, err)
		return
	}
	allowCORS(w)
	writeJSON(w, out)
}

// mutation is the union of all POST bodies.
type mutation struct {
	Action   string      `json:"action"`
	SheetID  string      `json:"sheetId"`
	ID       core.ID     `json:"id"`
	Date     string      `json:"date"`
	Amount   json.Number `json:"amount"`
	Type     core.TxType `json:"type"`
	Category string      `json:"category"`
	Content  string      `json:"content"`
	Note     string      `json:"note"`
	Month    string      `json:"month"`
	Keywords string      `json:"keywords"`
	Keyword  string      `json:"keyword"`
}

func (m mutation) transaction() core.Transaction {
	return core.Transaction{
		ID:       m.ID,
		Date:     core.NormalizeDisplayDate(m.Date),
		Amount:   core.ParseNumber(m.Amount.String()),
		Type:     m.Type,
		Category: m.Category,
		Content:  m.Content,
		Note:     m.Note,
	}
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	var m mutation
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&m); err != nil {
		s.count("")
		s.fail(w, r, "", fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.count(m.Action)
	ctx := r.Context()

	if err := s.checkSheet(m.SheetID); err != nil {
		s.fail(w, r, m.Action, err)
		return
	}

	resp := map[string]any{"success": true}
	var err error
	switch m.Action {
	case remote.ActionAddTransaction:
		var created core.Transaction
		if created, err = s.store.AddTransaction(ctx, m.transaction()); err == nil {
			resp["id"] = created.ID
		}
	case remote.ActionUpdateTransaction:
		var month int
		if month, err = partition(m.Month); err == nil {
			err = s.store.UpdateTransaction(ctx, m.transaction(), month)
		}
	case remote.ActionDeleteTransaction:
		var month int
		if month, err = partition(m.Month); err == nil {
			err = s.store.DeleteTransaction(ctx, m.ID, month)
		}
	case remote.ActionAddKeyword:
		err = s.store.AddKeywords(ctx, m.Category, core.SplitKeywords(m.Keywords))
	case remote.ActionDeleteKeyword:
		err = s.store.DeleteKeyword(ctx, m.Category, m.Keyword)
	default:
		err = fmt.Errorf("%w: %q", errUnknownAction, m.Action)
	}
	if err != nil {
		s.fail(w, r, m.Action, err)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Mutation applied",
		log.FieldAction, m.Action,
		log.FieldTxID, m.ID.String(),
		log.FieldCategory, m.Category)
	allowCORS(w)
	writeJSON(w, resp)
}

func (s *Server) search(r *http.Request) (core.SearchPage, error) {
	params := r.URL.Query()
	year := atoiDefault(params.Get("year"), s.now().Year())
	q := core.NewSearchQuery(year, params.Get("content"), params.Get("amount"), params.Get("category"))

	matches, err := s.store.SearchTransactions(r.Context(), q)
	if err != nil {
		return core.SearchPage{}, err
	}
	limit := atoiDefault(params.Get("limit"), pagination.DefaultSize)
	if limit < 1 {
		limit = pagination.DefaultSize
	}
	totalPages := pagination.TotalPages(len(matches), limit)
	page := atoiDefault(params.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return core.SearchPage{
		Transactions:      pagination.Slice(matches, page, limit),
		TotalTransactions: len(matches),
		TotalPages:        totalPages,
		CurrentPage:       page,
	}, nil
}

func (s *Server) checkSheet(id string) error {
	if s.sheetID != "" && id != s.sheetID {
		return fmt.Errorf("%w: %q", errWrongSheet, id)
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Store action failed",
		log.FieldAction, action,
		log.FieldError, err)
	allowCORS(w)
	writeJSON(w, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func allowCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func monthYear(month, year string, now time.Time) (int, int, error) {
	m, err := strconv.Atoi(month)
	if err != nil {
		return 0, 0, core.Invalid("month", core.ErrInvalidMonth)
	}
	if err := core.ValidateMonth(m); err != nil {
		return 0, 0, err
	}
	return m, atoiDefault(year, now.Year()), nil
}

func monthBounds(start, end string) (int, int, error) {
	s, err1 := strconv.Atoi(start)
	e, err2 := strconv.Atoi(end)
	if err1 != nil || err2 != nil {
		return 0, 0, core.Invalid("month", core.ErrInvalidMonth)
	}
	if err := core.ValidateMonthRange(s, e); err != nil {
		return 0, 0, err
	}
	return s, e, nil
}

// partition parses the zero-padded month of an update or delete. An empty
// value skips the partition check.
func partition(month string) (int, error) {
	if month == "" {
		return 0, nil
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return 0, core.Invalid("month", core.ErrInvalidMonth)
	}
	return m, core.ValidateMonth(m)
}

func sortedKeys(m map[string]core.Dong) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
