package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chitieu/internal/core"
	"chitieu/internal/remote"
	"chitieu/internal/services"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Data(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not set")
	}
	if w.Body.String() != `{"n":1}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_Unencodable(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data(map[string]any{"ch": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   services.ErrorKind
	}{
		{"validation", core.Invalid("amount", core.ErrInvalidAmount), http.StatusUnprocessableEntity, services.KindValidation},
		{"not found", services.ErrTransactionNotFound, http.StatusNotFound, services.KindNotFound},
		{"remote", &remote.RemoteError{Action: "deleteTransaction", Message: "Transaction not found"}, http.StatusBadGateway, services.KindRemote},
		{"transport", &remote.TransportError{Action: "getCategories", Status: 503, Err: errors.New("unavailable")}, http.StatusBadGateway, services.KindTransport},
		{"superseded", services.ErrSuperseded, http.StatusConflict, services.KindConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError, services.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tt.wantKind)
			}
			if body.Error != tt.err.Error() {
				t.Errorf("error = %q, want %q", body.Error, tt.err.Error())
			}
		})
	}
}

func TestConvenienceErrors(t *testing.T) {
	tests := []struct {
		builder *JSONResponseBuilder
		want    int
	}{
		{BadRequestError("bad"), http.StatusBadRequest},
		{NotFoundError("missing"), http.StatusNotFound},
		{MethodNotAllowedError(), http.StatusMethodNotAllowed},
		{TooManyRequestsError(), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		tt.builder.Write(w)
		if w.Code != tt.want {
			t.Errorf("Status code = %d, want %d", w.Code, tt.want)
		}
	}
}
