package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
	"chitieu/internal/middleware/ratelimit"
	"chitieu/internal/remote"
	"chitieu/internal/services"
	"chitieu/internal/storage/memory"
	"chitieu/internal/stub"
)

type apiFixture struct {
	server *Server
	remote *remote.Client
}

func newAPIFixture(t *testing.T, opts Options) *apiFixture {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 4, 20, 12, 0, 0, 0, time.Local) }

	st := stub.New(memory.New(memory.DefaultCategories), stub.Options{SheetID: "sheet-1", Now: now})
	store := httptest.NewServer(st.Routes())
	rc, err := remote.New(remote.Config{APIURL: store.URL + stub.APIPath, SheetID: "sheet-1"})
	require.NoError(t, err)

	session := services.NewSession(services.Options{Remote: rc, Now: now})
	srv := NewServer(":0", session, opts)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		session.Close()
		store.Close()
		st.Close()
	})
	return &apiFixture{server: srv, remote: rc}
}

func (f *apiFixture) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rr, req)
	return rr
}

func (f *apiFixture) seed(t *testing.T, date string, amount core.Dong, category string) {
	t.Helper()
	require.NoError(t, f.remote.AddTransaction(context.Background(), core.Transaction{
		Date: date, Amount: amount, Type: core.Expense, Category: category, Content: "seed",
	}))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndHeaders(t *testing.T) {
	f := newAPIFixture(t, Options{})

	rr := f.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	body := decode[healthResponse](t, rr)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, services.TabDaily, body.Session.Tab)
	assert.Equal(t, services.StateIdle, body.Session.State)
}

func TestDailyEndpoint(t *testing.T) {
	f := newAPIFixture(t, Options{})
	f.seed(t, "15/03/2024", 500000, "Ăn uống")
	f.seed(t, "15/03/2024", 1200000, "Mua sắm")

	rr := f.do(http.MethodGet, "/api/daily?date=2024-03-15", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[services.DailyView](t, rr)
	assert.Equal(t, "15/03/2024", view.Date)
	assert.Len(t, view.Transactions, 2)
	assert.Equal(t, core.Dong(1700000), view.Summary.Expense)
	assert.False(t, view.Cached)

	rr = f.do(http.MethodGet, "/api/daily?date=2024-03-15", "", "")
	assert.True(t, decode[services.DailyView](t, rr).Cached)
}

func TestErrorStatuses(t *testing.T) {
	f := newAPIFixture(t, Options{})

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantKind   services.ErrorKind
	}{
		{"daily without date", http.MethodGet, "/api/daily", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"bad month", http.MethodGet, "/api/monthly?month=13", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"month not a number", http.MethodGet, "/api/monthly?month=x", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"inverted range", http.MethodGet, "/api/charts?mode=custom&start=5&end=2", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"detail without chart", http.MethodGet, "/api/charts/category?name=Kh%C3%A1c", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"empty search", http.MethodGet, "/api/search?content=+", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"unknown tab", http.MethodPost, "/api/tabs/settings", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"chart not paginated", http.MethodPost, "/api/pages/chart/next", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"bad direction", http.MethodPost, "/api/pages/daily/up", "", http.StatusUnprocessableEntity, services.KindValidation},
		{"delete unknown", http.MethodDelete, "/api/transactions/nope", "", http.StatusNotFound, services.KindNotFound},
		{"update unknown", http.MethodPut, "/api/transactions/nope", `{"date":"2024-04-10","amount":1000,"category":"Khác"}`, http.StatusBadGateway, services.KindRemote},
		{"fractional amount", http.MethodPost, "/api/transactions", `{"date":"2024-04-10","amount":12.7,"type":"expense","category":"Khác"}`, http.StatusUnprocessableEntity, services.KindValidation},
		{"malformed body", http.MethodPost, "/api/transactions", `{"date":`, http.StatusBadRequest, services.KindValidation},
		{"no such endpoint", http.MethodGet, "/api/nothing", "", http.StatusNotFound, services.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(tt.method, tt.target, "application/json", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			body := decode[ErrorBody](t, rr)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestTransactionLifecycle(t *testing.T) {
	f := newAPIFixture(t, Options{})

	rr := f.do(http.MethodGet, "/api/daily?date=2024-04-10", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodPost, "/api/transactions", "application/json",
		`{"date":"2024-04-10","amount":"35.000","type":"expense","category":"Ăn uống","content":"Bánh mì"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	added := decode[services.MutationResult](t, rr)
	assert.Equal(t, core.Dong(35000), added.Transaction.Amount)
	assert.Equal(t, "04", added.Month)
	require.NotNil(t, added.Refreshed)
	require.NotNil(t, added.Refreshed.Daily)
	require.Len(t, added.Refreshed.Daily.Transactions, 1)
	id := added.Refreshed.Daily.Transactions[0].ID

	form := url.Values{
		"date": {"2024-04-10"}, "amount": {"40000"}, "type": {"Chi tiêu"},
		"category": {"Ăn uống"}, "content": {"Bánh mì pate"},
	}
	rr = f.do(http.MethodPut, "/api/transactions/"+id.String(), "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[services.MutationResult](t, rr)
	require.NotNil(t, updated.Refreshed.Daily)
	assert.Equal(t, "Bánh mì pate", updated.Refreshed.Daily.Transactions[0].Content)

	rr = f.do(http.MethodDelete, "/api/transactions/"+id.String(), "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	deleted := decode[services.MutationResult](t, rr)
	assert.Empty(t, deleted.Refreshed.Daily.Transactions)
}

func TestAddRejectsInvalidAmount(t *testing.T) {
	f := newAPIFixture(t, Options{})
	rr := f.do(http.MethodPost, "/api/transactions", "application/json",
		`{"date":"2024-04-10","amount":"0","category":"Khác"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestChartsAndDetail(t *testing.T) {
	f := newAPIFixture(t, Options{})
	f.seed(t, "05/01/2024", 100000, "Ăn uống")
	f.seed(t, "06/02/2024", 200000, "Ăn uống")

	rr := f.do(http.MethodGet, "/api/charts?mode=custom&start=1&end=2", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	chart := decode[services.ChartView](t, rr)
	require.Len(t, chart.Data.ExpenseCategoryData, 1)
	assert.Equal(t, core.Dong(300000), chart.Data.ExpenseCategoryData[0].Amount)

	rr = f.do(http.MethodGet, "/api/charts/category?name="+url.QueryEscape("Ăn uống"), "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	detail := decode[services.CategoryDetailView](t, rr)
	assert.Len(t, detail.Transactions, 2)
	assert.Len(t, detail.ChartData, 2)

	rr = f.do(http.MethodDelete, "/api/charts/category", "", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestSearchAndPaging(t *testing.T) {
	f := newAPIFixture(t, Options{})
	for i := 0; i < 12; i++ {
		f.seed(t, "01/04/2024", core.Dong(1000+i), "Khác")
	}

	rr := f.do(http.MethodGet, "/api/daily?date=2024-04-01", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodPost, "/api/pages/daily/next", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decode[services.PageResult](t, rr)
	assert.True(t, page.Moved)
	require.NotNil(t, page.Daily)
	assert.Len(t, page.Daily.Transactions, 2)

	rr = f.do(http.MethodGet, "/api/search?category="+url.QueryEscape("Khác"), "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	search := decode[services.SearchView](t, rr)
	assert.Equal(t, 12, search.TotalTransactions)
	assert.Equal(t, 2, search.Window.TotalPages)

	rr = f.do(http.MethodPost, "/api/tabs/search", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	tab := decode[services.TabView](t, rr)
	require.NotNil(t, tab.Search)
	assert.Equal(t, search.Fingerprint, tab.Search.Fingerprint)
}

func TestKeywordEndpoints(t *testing.T) {
	f := newAPIFixture(t, Options{})

	rr := f.do(http.MethodPost, "/api/keywords", "application/x-www-form-urlencoded",
		url.Values{"category": {"Ăn uống"}, "keywords": {"phở, bún"}}.Encode())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = f.do(http.MethodDelete, "/api/keywords?category="+url.QueryEscape("Ăn uống")+"&keyword="+url.QueryEscape("phở"), "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode[struct {
		Keywords []core.KeywordSet `json:"keywords"`
	}](t, rr)
	for _, set := range body.Keywords {
		if set.Category == "Ăn uống" {
			assert.Equal(t, "bún", set.Keywords)
		}
	}

	rr = f.do(http.MethodDelete, "/api/keywords", "application/json", `{"category":"Ăn uống","keyword":"cơm"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.do(http.MethodGet, "/api/keywords", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	cats := decode[map[string][]string](t, rr)
	assert.Equal(t, memory.DefaultCategories, cats["categories"])
}

func TestMutationsAreRateLimited(t *testing.T) {
	f := newAPIFixture(t, Options{RateLimit: ratelimit.Config{RequestsPerMinute: 2}})

	for i := 0; i < 2; i++ {
		rr := f.do(http.MethodDelete, "/api/transactions/nope", "", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}
	rr := f.do(http.MethodDelete, "/api/transactions/nope", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// reads are not limited
	rr = f.do(http.MethodGet, "/api/status", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSuspiciousRequestsAreRejected(t *testing.T) {
	f := newAPIFixture(t, Options{})
	rr := f.do(http.MethodGet, "/api/daily?date=../../etc/passwd", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
