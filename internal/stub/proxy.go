package stub

import (
	"bytes"
	"io"
	"net/http"
	"net/url"

	"chitieu/internal/log"
)

const maxProxyBody = 8 << 20

// handleProxy forwards the request named by ?url= with its method and body,
// relaying status and body back.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		s.handlePreflight(w, r)
		return
	}
	raw := r.URL.Query().Get("url")
	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		http.Error(w, "invalid proxy target", http.StatusBadRequest)
		return
	}
	if len(s.proxyHosts) > 0 && !s.proxyHosts[target.Host] {
		http.Error(w, "proxy target not allowed", http.StatusForbidden)
		return
	}

	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBody))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		http.Error(w, "invalid proxy request", http.StatusBadRequest)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := s.proxyClient.Do(req)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Proxy request failed",
			"target_host", target.Host, log.FieldError, err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	allowCORS(w)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, io.LimitReader(resp.Body, maxProxyBody))
}
