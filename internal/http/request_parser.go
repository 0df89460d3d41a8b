// Package http exposes the session views and mutations as a JSON API.
//
// This file implements utilities for parsing and validating request data.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"chitieu/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ParseIntParam reads key from values. A missing key yields def; a value
// that is not an integer is a validation error for key.
func ParseIntParam(values url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(key, fmt.Errorf("%q is not a number", v))
	}
	return n, nil
}

// ChartParams are the chart filter query values.
type ChartParams struct {
	Mode  core.ChartMode
	Start int
	End   int
}

// ParseChartParams reads mode, start and end. The range only matters for
// the custom mode.
func ParseChartParams(query url.Values) (ChartParams, error) {
	mode, err := core.ParseChartMode(strings.TrimSpace(query.Get("mode")))
	if err != nil {
		return ChartParams{}, err
	}
	start, err := ParseIntParam(query, "start", 0)
	if err != nil {
		return ChartParams{}, err
	}
	end, err := ParseIntParam(query, "end", 0)
	if err != nil {
		return ChartParams{}, err
	}
	return ChartParams{Mode: mode, Start: start, End: end}, nil
}

// ParseSearchQuery builds a normalised search from year, content, amount
// and category. A missing year is left to the session.
func ParseSearchQuery(query url.Values) (core.SearchQuery, error) {
	year, err := ParseIntParam(query, "year", 0)
	if err != nil {
		return core.SearchQuery{}, err
	}
	return core.NewSearchQuery(year,
		sanitizeInput(query.Get("content")),
		sanitizeInput(query.Get("amount")),
		sanitizeInput(query.Get("category")),
	), nil
}

// RequestBodyParser reads a JSON or form-encoded body once and answers
// field lookups from whichever it was.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse decodes the body. Bodies starting with '{' are JSON, anything else
// is treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns the sanitised value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// TransactionInput reads the add/edit form fields. A text amount accepts
// grouped input such as "1.200.000"; a JSON number must be whole.
func (p *RequestBodyParser) TransactionInput(id core.ID) (core.TransactionInput, error) {
	amount, err := p.amount()
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		ID:       id,
		Date:     p.Get("date"),
		Amount:   amount,
		Type:     core.TxType(parseTxType(p.Get("type"))),
		Category: p.Get("category"),
		Content:  p.Get("content"),
		Note:     p.Get("note"),
	}, nil
}

func (p *RequestBodyParser) amount() (core.Dong, error) {
	if n, ok := p.jsonData["amount"].(float64); ok {
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64 {
			return 0, core.Invalid("amount", core.ErrWholeAmount)
		}
		return core.Dong(n), nil
	}
	return core.ParseNumber(p.Get("amount")), nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
