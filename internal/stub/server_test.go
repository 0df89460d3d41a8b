package stub

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/remote"
	"chitieu/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 20, 9, 0, 0, 0, time.Local)

type fixture struct {
	server *Server
	http   *httptest.Server
	client *remote.Client
}

func newFixture(t *testing.T, viaProxy bool) *fixture {
	t.Helper()
	s := New(memory.New(memory.DefaultCategories), Options{
		SheetID: "sheet-1",
		Now:     func() time.Time { return testNow },
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})

	cfg := remote.Config{APIURL: srv.URL + APIPath, SheetID: "sheet-1"}
	if viaProxy {
		cfg.ProxyBase = srv.URL + ProxyPath + "?url="
	}
	c, err := remote.New(cfg)
	require.NoError(t, err)
	return &fixture{server: s, http: srv, client: c}
}

func (f *fixture) add(t *testing.T, date string, amount core.Dong, typ core.TxType, category, content string) {
	t.Helper()
	err := f.client.AddTransaction(context.Background(), core.Transaction{
		Date: date, Amount: amount, Type: typ, Category: category, Content: content,
	})
	require.NoError(t, err)
}

func TestReadAndMutateThroughProxy(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.add(t, "15/03/2024", 500000, core.Expense, "Ăn uống", "Phở")
	f.add(t, "15/03/2024", 3000000, core.Income, "Lương", "Lương tháng 3")

	txs, err := f.client.TransactionsByDate(ctx, "2024-03-15")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, core.Summary{Income: 3000000, Expense: 500000, Balance: 2500000}, core.Summarize(txs))

	pho, ok := findContent(txs, "Phở")
	require.True(t, ok)
	pho.Amount = 550000
	require.NoError(t, f.client.UpdateTransaction(ctx, pho, "03"))

	month, err := f.client.TransactionsByMonth(ctx, 3, 2024)
	require.NoError(t, err)
	got, _ := findContent(month, "Phở")
	assert.Equal(t, core.Dong(550000), got.Amount)

	require.NoError(t, f.client.DeleteTransaction(ctx, pho.ID, "03"))
	txs, err = f.client.TransactionsByDate(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	calls := f.server.Calls()
	assert.Equal(t, 2, calls[remote.ActionAddTransaction])
	assert.Equal(t, 2, calls[remote.ActionTransactionsByDate])
}

func TestErrorsAreRemoteErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	err := f.client.DeleteTransaction(ctx, "missing", "03")
	require.Error(t, err)
	assert.True(t, remote.IsRemote(err))

	f.add(t, "15/03/2024", 1000, core.Expense, "Khác", "x")
	txs, err := f.client.TransactionsByDate(ctx, "2024-03-15")
	require.NoError(t, err)
	err = f.client.DeleteTransaction(ctx, txs[0].ID, "04")
	assert.True(t, remote.IsRemote(err), "wrong month partition is refused")

	other, err := remote.New(remote.Config{APIURL: f.http.URL + APIPath, SheetID: "other"})
	require.NoError(t, err)
	_, err = other.Categories(ctx)
	assert.True(t, remote.IsRemote(err))

	var out any
	err = f.client.Get(ctx, "noSuchAction", nil, &out)
	assert.True(t, remote.IsRemote(err))
}

func TestChartAggregations(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.add(t, "05/01/2024", 200000, core.Expense, "Ăn uống", "Cơm")
	f.add(t, "10/02/2024", 300000, core.Expense, "Di chuyển", "Grab")
	f.add(t, "11/02/2024", 100000, core.Expense, "Ăn uống", "Bún")
	f.add(t, "01/03/2024", 5000000, core.Income, "Lương", "Lương")
	f.add(t, "02/03/2023", 999000, core.Expense, "Ăn uống", "last year")

	points, err := f.client.MonthlyData(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthlyPoint{
		{Month: 1, Expense: 200000},
		{Month: 2, Expense: 400000},
		{Month: 3, Income: 5000000},
	}, points)

	byCat, err := f.client.ExpensesByCategory(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Category: "Di chuyển", Amount: 300000},
		{Category: "Ăn uống", Amount: 300000},
	}, byCat)

	detail, err := f.client.CategoryMonthlyData(ctx, "Ăn uống", 1, 3, 2024)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryMonthAmount{
		{Month: 1, Amount: 200000},
		{Month: 2, Amount: 100000},
		{Month: 3, Amount: 0},
	}, detail)

	_, err = f.client.MonthlyData(ctx, 4, 2)
	assert.True(t, remote.IsRemote(err))
}

func TestSearchPagination(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		f.add(t, "0"+string(rune('0'+i%9+1))+"/03/2024", core.Dong(i*1000), core.Expense, "Ăn uống", "Cà phê sáng")
	}
	f.add(t, "01/03/2024", 1000, core.Expense, "Khác", "Sách")

	q := core.NewSearchQuery(2024, "cà PHÊ", "", "")
	page, err := f.client.SearchTransactions(ctx, q, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, page.TotalTransactions)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Transactions, 5)

	page, err = f.client.SearchTransactions(ctx, q, 9, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Len(t, page.Transactions, 2)

	page, err = f.client.SearchTransactions(ctx, core.NewSearchQuery(2024, "", "1.000", ""), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalTransactions)

	page, err = f.client.SearchTransactions(ctx, core.NewSearchQuery(2023, "cà phê", "", ""), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalTransactions)
	assert.Equal(t, 1, page.TotalPages)
}

func TestKeywords(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.client.AddKeyword(ctx, "Ăn uống", "phở, bún ,cơm"))
	sets, err := f.client.Keywords(ctx)
	require.NoError(t, err)
	set := findSet(sets, "Ăn uống")
	assert.Equal(t, []string{"phở", "bún", "cơm"}, set.List())

	require.NoError(t, f.client.DeleteKeyword(ctx, "Ăn uống", "BÚN"))
	sets, err = f.client.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"phở", "cơm"}, findSet(sets, "Ăn uống").List())

	err = f.client.DeleteKeyword(ctx, "Ăn uống", "trà")
	assert.True(t, remote.IsRemote(err))
}

func TestProxyRejectsBadTargets(t *testing.T) {
	s := New(memory.New(nil), Options{ProxyHosts: []string{"allowed.example"}})
	t.Cleanup(s.Close)
	h := s.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ProxyPath+"?url=ftp%3A%2F%2Fx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ProxyPath+"?url=https%3A%2F%2Fevil.example%2F", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMalformedMutationBody(t *testing.T) {
	s := New(memory.New(nil), Options{})
	t.Cleanup(s.Close)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, APIPath, strings.NewReader("{")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestFailedActionLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	s := New(memory.New(nil), Options{Logger: log.New(log.Config{Output: &buf})})
	t.Cleanup(s.Close)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, APIPath+"?action=nope", nil)
	req.Header.Set("X-Request-Id", "req-42")
	s.Routes().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `"error"`)
	assert.Contains(t, buf.String(), "Store action failed")
	assert.Contains(t, buf.String(), "request_id=req-42")
}

func findContent(txs []core.Transaction, content string) (core.Transaction, bool) {
	for _, t := range txs {
		if t.Content == content {
			return t, true
		}
	}
	return core.Transaction{}, false
}

func findSet(sets []core.KeywordSet, category string) core.KeywordSet {
	for _, s := range sets {
		if s.Category == category {
			return s
		}
	}
	return core.KeywordSet{}
}
