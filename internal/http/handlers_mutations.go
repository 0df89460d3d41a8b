package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chitieu/internal/core"
	"chitieu/internal/log"
)

// readBody parses the request body or writes a 400 and returns nil.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body", log.FieldError, err.Error())
		BadRequestError("malformed request body").Write(w)
		return nil
	}
	return p
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	p := s.readBody(w, r)
	if p == nil {
		return
	}
	in, err := p.TransactionInput("")
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	res, err := s.session.Add(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(res).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p := s.readBody(w, r)
	if p == nil {
		return
	}
	in, err := p.TransactionInput(core.ID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	res, err := s.session.Update(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.respond(w, res)
}

// handleDeleteTransaction removes a transaction shown in the active view.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Delete(r.Context(), core.ID(chi.URLParam(r, "id")))
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.respond(w, res)
}

// handleAddKeyword takes category and a comma-separated keywords field.
func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	p := s.readBody(w, r)
	if p == nil {
		return
	}
	sets, err := s.session.AddKeyword(r.Context(), p.Get("category"), p.Get("keywords"))
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(map[string]any{"keywords": sets}).Write(w)
}

// handleDeleteKeyword reads category and keyword from the body, falling
// back to the query string.
func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	p := s.readBody(w, r)
	if p == nil {
		return
	}
	category, keyword := p.Get("category"), p.Get("keyword")
	if category == "" {
		category = sanitizeInput(r.URL.Query().Get("category"))
	}
	if keyword == "" {
		keyword = sanitizeInput(r.URL.Query().Get("keyword"))
	}
	sets, err := s.session.DeleteKeyword(r.Context(), category, keyword)
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.respond(w, map[string]any{"keywords": sets})
}
