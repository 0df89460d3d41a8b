package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chitieu/internal/log"
	"chitieu/internal/middleware/ratelimit"
	"chitieu/internal/middleware/security"
	"chitieu/internal/middleware/trace"
	"chitieu/internal/services"
)

type healthResponse struct {
	Status     string                    `json:"status"`
	Session    services.Status           `json:"session"`
	Requests   trace.Metrics             `json:"requests"`
	RateLimit  ratelimit.Metrics         `json:"rateLimit"`
	Suspicious security.DetectionMetrics `json:"suspicious"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, healthResponse{
		Status:     "ok",
		Session:    s.session.Status(),
		Requests:   s.tracer.Metrics(),
		RateLimit:  s.limiter.Metrics(),
		Suspicious: s.detector.Metrics(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.session.Status())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.session.Categories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	s.respond(w, map[string][]string{"categories": cats})
}

// handleDaily serves GET /api/daily?date=YYYY-MM-DD.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	view, err := s.session.Daily(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, log.OpFetch, err)
		return
	}
	s.respond(w, view)
}

// handleMonthly serves GET /api/monthly?month=N for the current year.
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	month, err := ParseIntParam(r.URL.Query(), "month", 0)
	if err != nil {
		s.fail(w, r, log.OpFetch, err)
		return
	}
	view, err := s.session.Monthly(r.Context(), month)
	if err != nil {
		s.fail(w, r, log.OpFetch, err)
		return
	}
	s.respond(w, view)
}

// handleChart serves GET /api/charts?mode=monthly|yearly|custom&start=&end=.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	params, err := ParseChartParams(r.URL.Query())
	if err != nil {
		s.fail(w, r, log.OpFetch, err)
		return
	}
	view, err := s.session.Chart(r.Context(), params.Mode, params.Start, params.End)
	if err != nil {
		s.fail(w, r, log.OpFetch, err)
		return
	}
	s.respond(w, view)
}

// handleCategoryDetail serves GET /api/charts/category?name=...
func (s *Server) handleCategoryDetail(w http.ResponseWriter, r *http.Request) {
	view, err := s.session.CategoryDetail(r.Context(), sanitizeInput(r.URL.Query().Get("name")))
	if err != nil {
		s.fail(w, r, log.OpFetch, err)
		return
	}
	s.respond(w, view)
}

func (s *Server) handleCloseCategoryDetail(w http.ResponseWriter, r *http.Request) {
	s.session.CloseCategoryDetail()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := ParseSearchQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, log.OpSearch, err)
		return
	}
	view, err := s.session.Search(r.Context(), q)
	if err != nil {
		s.fail(w, r, log.OpSearch, err)
		return
	}
	s.respond(w, view)
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	sets, err := s.session.Keywords(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	s.respond(w, map[string]any{"keywords": sets})
}

func (s *Server) handleOpenTab(w http.ResponseWriter, r *http.Request) {
	tab, err := services.ParseTab(chi.URLParam(r, "tab"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	view, err := s.session.OpenTab(tab)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.respond(w, view)
}

// handlePage serves POST /api/pages/{view}/{next|prev}.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view, err := services.ParsePaginatedView(chi.URLParam(r, "view"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	dir, err := services.ParseDirection(strings.ToLower(chi.URLParam(r, "direction")))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	res, err := s.session.Page(r.Context(), view, dir)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.respond(w, res)
}
