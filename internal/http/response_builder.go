// This file implements a builder for JSON responses and the mapping from
// session errors to HTTP statuses.

package http

import (
	"encoding/json"
	"net/http"

	"chitieu/internal/services"
)

// ErrorBody is the payload of every failed request.
type ErrorBody struct {
	Error string             `json:"error"`
	Kind  services.ErrorKind `json:"kind"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a builder with a 200 status and no body.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response. A payload that cannot be encoded turns
// into a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response","kind":"internal"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

// StatusForKind maps an error kind to the HTTP status reported for it.
func StatusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusUnprocessableEntity
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindRemote, services.KindTransport:
		return http.StatusBadGateway
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ErrorResponse reports err with the status of its kind.
func ErrorResponse(err error) *JSONResponseBuilder {
	kind := services.Kind(err)
	return NewJSONResponse().
		Status(StatusForKind(kind)).
		Data(ErrorBody{Error: err.Error(), Kind: kind})
}

// BadRequestError reports a request that could not be read at all.
func BadRequestError(message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusBadRequest).
		Data(ErrorBody{Error: message, Kind: services.KindValidation})
}

func NotFoundError(message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusNotFound).
		Data(ErrorBody{Error: message, Kind: services.KindNotFound})
}

func MethodNotAllowedError() *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusMethodNotAllowed).
		Data(ErrorBody{Error: "method not allowed", Kind: services.KindValidation})
}

func TooManyRequestsError() *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusTooManyRequests).
		Data(ErrorBody{Error: "rate limit exceeded, try again later", Kind: services.KindConflict})
}
