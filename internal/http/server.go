package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chitieu/internal/log"
	"chitieu/internal/middleware/ratelimit"
	"chitieu/internal/middleware/security"
	"chitieu/internal/middleware/trace"
	"chitieu/internal/services"
)

type Options struct {
	Logger *log.Logger
	// RateLimit applies to requests that change data.
	RateLimit      ratelimit.Config
	Headers        security.HeadersConfig
	TrustedProxies []string
}

type Server struct {
	http.Server
	session  *services.Session
	logger   *log.Logger
	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires the session into a router and returns a ready-to-run
// server. Call Shutdown to stop it and its background work.
func NewServer(addr string, session *services.Session, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Headers == (security.HeadersConfig{}) {
		opts.Headers = security.DefaultHeadersConfig()
	}

	s := &Server{
		session:  session,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		tracer:   trace.NewMiddleware(opts.Logger),
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts.Headers),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(headers security.HeadersConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Handler)
	r.Use(security.NewHeadersMiddleware(headers).Middleware)
	r.Use(s.rejectSuspicious)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/categories", s.handleCategories)
		r.Get("/daily", s.handleDaily)
		r.Get("/monthly", s.handleMonthly)
		r.Get("/charts", s.handleChart)
		r.Get("/charts/category", s.handleCategoryDetail)
		r.Delete("/charts/category", s.handleCloseCategoryDetail)
		r.Get("/search", s.handleSearch)
		r.Get("/keywords", s.handleKeywords)
		r.Post("/tabs/{tab}", s.handleOpenTab)
		r.Post("/pages/{view}/{direction}", s.handlePage)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited))
			r.Post("/transactions", s.handleAddTransaction)
			r.Put("/transactions/{id}", s.handleUpdateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Post("/keywords", s.handleAddKeyword)
			r.Delete("/keywords", s.handleDeleteKeyword)
		})
	})
	return r
}

// rejectSuspicious refuses probes before they reach a handler.
func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			BadRequestError("request rejected").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// respond writes v as a 200 JSON body.
func (s *Server) respond(w http.ResponseWriter, v any) {
	NewJSONResponse().Data(v).Write(w)
}

// fail logs err against the request and writes its error body. Validation
// and conflicts are the caller's doing and log at warn.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	kind := services.Kind(err)
	logger := log.FromContext(ctx)
	switch kind {
	case services.KindValidation, services.KindNotFound, services.KindConflict:
		logger.WarnContext(ctx, "Request refused",
			log.FieldOperation, op, log.FieldErrorKind, string(kind), log.FieldError, err.Error())
	default:
		logger.LogError(ctx, "Request failed", err, op, log.NewFields().WithErrorKind(string(kind)))
	}
	ErrorResponse(err).Write(w)
}

// Shutdown stops accepting requests, waits for in-flight ones and stops
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
