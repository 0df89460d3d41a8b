// Package remote talks to the spreadsheet-backed transaction store. Every
// request goes through a URL-rewriting proxy: reads are GETs of
// proxyBase+escape(api?action=...), mutations are JSON POSTs to
// proxyBase+escape(api) whose body names the action.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chitieu/internal/log"
)

// DefaultProxyBase is the public pass-through proxy the store is reached by.
const DefaultProxyBase = "https://testhmh.netlify.app/.netlify/functions/proxy?url="

const maxResponseBytes = 8 << 20

type Config struct {
	APIURL    string
	SheetID   string
	ProxyBase string
	// Timeout bounds each request; zero means no timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

type Client struct {
	apiURL    string
	sheetID   string
	proxyBase string
	http      *http.Client
	logger    *log.Logger
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, errors.New("remote: api url is required")
	}
	if strings.TrimSpace(cfg.SheetID) == "" {
		return nil, errors.New("remote: sheet id is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClientWithPooling(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		apiURL:    cfg.APIURL,
		sheetID:   cfg.SheetID,
		proxyBase: cfg.ProxyBase,
		http:      hc,
		logger:    logger.WithComponent(log.ComponentRemote),
	}, nil
}

// newHTTPClientWithPooling keeps connections to the proxy alive between
// calls. Only dialing and TLS are bounded unless timeout is set.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// SheetID is the dataset this client operates on.
func (c *Client) SheetID() string { return c.sheetID }

// TargetURL builds api?action=<action>&<params>&sheetId=<id>. Params are
// encoded in key order.
func (c *Client) TargetURL(action string, params url.Values) string {
	var b strings.Builder
	b.WriteString(c.apiURL)
	if strings.Contains(c.apiURL, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("action=")
	b.WriteString(url.QueryEscape(action))
	if len(params) > 0 {
		b.WriteByte('&')
		b.WriteString(params.Encode())
	}
	b.WriteString("&sheetId=")
	b.WriteString(url.QueryEscape(c.sheetID))
	return b.String()
}

// proxied wraps target in the proxy. An empty proxy base talks to the
// store directly.
func (c *Client) proxied(target string) string {
	if c.proxyBase == "" {
		return target
	}
	return c.proxyBase + url.QueryEscape(target)
}

// Get issues a read action and decodes the response into out.
func (c *Client) Get(ctx context.Context, action string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.proxied(c.TargetURL(action, params)), nil)
	if err != nil {
		return &TransportError{Action: action, Err: err}
	}
	return c.do(req, action, out)
}

// Post sends a mutation. body gets the action and sheet id added.
func (c *Client) Post(ctx context.Context, action string, body map[string]any, out any) error {
	payload := make(map[string]any, len(body)+2)
	for k, v := range body {
		payload[k] = v
	}
	payload["action"] = action
	payload["sheetId"] = c.sheetID

	raw, err := json.Marshal(payload)
	if err != nil {
		return &TransportError{Action: action, Err: fmt.Errorf("encode body: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxied(c.apiURL), bytes.NewReader(raw))
	if err != nil {
		return &TransportError{Action: action, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, action, out)
}

func (c *Client) do(req *http.Request, action string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(req.Context(), "remote request failed", log.FieldAction, action, log.FieldError, err)
		return &TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Action: action, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.DebugContext(req.Context(), "remote call",
		log.FieldAction, action,
		log.FieldMethod, req.Method,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if msg, ok := errorField(body); ok {
		return &RemoteError{Action: action, Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Action: action, Status: resp.StatusCode, Err: errBadStatus}
	}
	if out == nil {
		if !json.Valid(body) {
			return &TransportError{Action: action, Status: resp.StatusCode, Err: errors.New("malformed JSON")}
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Action: action, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// errorField extracts a truthy "error" member of a JSON object body.
func errorField(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var envelope struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return "", false
	}
	switch v := envelope.Error.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		return "error", v
	case float64:
		return fmt.Sprint(v), v != 0
	default:
		return fmt.Sprint(v), true
	}
}
