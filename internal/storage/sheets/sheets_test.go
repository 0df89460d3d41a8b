package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"chitieu/internal/core"
	"chitieu/internal/storage"
)

// fakeSheets serves the slice of the Sheets v4 REST API the store uses.
type fakeSheets struct {
	mu     sync.Mutex
	id     string
	sheets map[string]*fakeSheet
}

type fakeSheet struct {
	id   int64
	rows [][]any
}

func newFakeSheets(id string) *fakeSheets {
	f := &fakeSheets{id: id, sheets: map[string]*fakeSheet{}}
	for i, title := range []string{DefaultTransactionsSheet, DefaultCategoriesSheet, DefaultKeywordsSheet} {
		f.sheets[title] = &fakeSheet{id: int64(i)}
	}
	f.sheets[DefaultTransactionsSheet].rows = [][]any{{"id", "date", "content", "amount", "type", "category", "note"}}
	f.sheets[DefaultCategoriesSheet].rows = [][]any{{"name"}, {"Ăn uống"}, {"Lương"}, {"Ăn uống"}, {"# hidden"}}
	f.sheets[DefaultKeywordsSheet].rows = [][]any{{"category", "keywords"}, {"Ăn uống", "phở, cơm"}}
	return f
}

// a1 is a parsed range such as "Transactions!A2:G"; zero rows are open.
type a1 struct {
	sheet      string
	c1, r1     int
	c2, r2     int
	hasEndCell bool
}

func parseCell(s string) (col, row int) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	row, _ = strconv.Atoi(s[i:])
	return col - 1, row
}

func parseA1(s string) a1 {
	title, cells, _ := strings.Cut(s, "!")
	r := a1{sheet: title}
	start, end, ok := strings.Cut(cells, ":")
	r.c1, r.r1 = parseCell(start)
	if ok {
		r.hasEndCell = true
		r.c2, r.r2 = parseCell(end)
	} else {
		r.c2, r.r2 = r.c1, r.r1
	}
	return r
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rest := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	switch {
	case rest == f.id && r.Method == http.MethodGet:
		doc := &gsheet.Spreadsheet{}
		for title, sh := range f.sheets {
			doc.Sheets = append(doc.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{SheetId: sh.id, Title: title}})
		}
		_ = json.NewEncoder(w).Encode(doc)

	case rest == f.id+":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, q := range req.Requests {
			dr := q.DeleteDimension.Range
			for _, sh := range f.sheets {
				if sh.id == dr.SheetId {
					sh.rows = append(sh.rows[:dr.StartIndex], sh.rows[dr.EndIndex:]...)
				}
			}
		}
		_, _ = w.Write([]byte(`{}`))

	case strings.HasPrefix(rest, f.id+"/values/"):
		rng := strings.TrimPrefix(rest, f.id+"/values/")
		if r.Method == http.MethodPost && strings.HasSuffix(rng, ":append") {
			f.appendValues(parseA1(strings.TrimSuffix(rng, ":append")), r)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		if r.Method == http.MethodPut {
			f.updateValues(parseA1(rng), r)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_ = json.NewEncoder(w).Encode(&gsheet.ValueRange{Range: rng, Values: f.readValues(parseA1(rng))})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) readValues(rg a1) [][]any {
	sh := f.sheets[rg.sheet]
	first := max(rg.r1, 1) - 1
	last := len(sh.rows)
	if rg.hasEndCell && rg.r2 > 0 && rg.r2 < last {
		last = rg.r2
	}
	var out [][]any
	for i := first; i < last; i++ {
		row := sh.rows[i]
		cells := []any{}
		for c := rg.c1; c <= rg.c2 && c < len(row); c++ {
			cells = append(cells, row[c])
		}
		out = append(out, cells)
	}
	return out
}

func (f *fakeSheets) setRow(sh *fakeSheet, n, col int, values []any) {
	for len(sh.rows) < n {
		sh.rows = append(sh.rows, []any{})
	}
	row := sh.rows[n-1]
	for len(row) < col+len(values) {
		row = append(row, "")
	}
	copy(row[col:], values)
	sh.rows[n-1] = row
}

func (f *fakeSheets) updateValues(rg a1, r *http.Request) {
	var vr gsheet.ValueRange
	_ = json.NewDecoder(r.Body).Decode(&vr)
	for i, values := range vr.Values {
		f.setRow(f.sheets[rg.sheet], rg.r1+i, rg.c1, values)
	}
}

func (f *fakeSheets) appendValues(rg a1, r *http.Request) {
	var vr gsheet.ValueRange
	_ = json.NewDecoder(r.Body).Decode(&vr)
	sh := f.sheets[rg.sheet]
	for _, values := range vr.Values {
		f.setRow(sh, len(sh.rows)+1, rg.c1, values)
	}
}

func newTestStore(t *testing.T) (*Store, *fakeSheets) {
	t.Helper()
	fake := newFakeSheets("doc-1")
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{
		SpreadsheetID: "doc-1",
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.URL + "/"),
			option.WithHTTPClient(srv.Client()),
		},
	}, nil)
	require.NoError(t, err)
	return s, fake
}

func TestNewRequiresIDAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.ErrorContains(t, err, "missing spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "doc-1"}, nil)
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestCategoriesSkipDuplicatesAndComments(t *testing.T) {
	s, _ := newTestStore(t)
	cats, err := s.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ăn uống", "Lương"}, cats)
}

func TestTransactionLifecycle(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	lunch, err := s.AddTransaction(ctx, core.Transaction{Date: "20/04/2024", Content: "Phở", Amount: 55000, Type: core.Expense, Category: "Ăn uống"})
	require.NoError(t, err)
	assert.NotEmpty(t, lunch.ID)
	salary, err := s.AddTransaction(ctx, core.Transaction{Date: "1/4/2024", Content: "Lương tháng 4", Amount: 15000000, Type: core.Income, Category: "Lương"})
	require.NoError(t, err)
	assert.Equal(t, "01/04/2024", salary.Date)

	_, err = s.AddTransaction(ctx, core.Transaction{Date: "20/04/2024", Amount: 1, Category: "Du lịch"})
	assert.ErrorIs(t, err, storage.ErrUnknownCategory)

	day, err := s.TransactionsByDate(ctx, time.Date(2024, 4, 20, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, core.Dong(55000), day[0].Amount)

	month, err := s.TransactionsByMonth(ctx, 2024, 4)
	require.NoError(t, err)
	require.Len(t, month, 2)
	assert.Equal(t, salary.ID, month[0].ID, "ordered by day")

	lunch.Amount = 60000
	assert.ErrorIs(t, s.UpdateTransaction(ctx, lunch, 5), storage.ErrMonthMismatch)
	require.NoError(t, s.UpdateTransaction(ctx, lunch, 4))

	found, err := s.SearchTransactions(ctx, core.NewSearchQuery(2024, "phở", "", ""))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, core.Dong(60000), found[0].Amount)

	require.NoError(t, s.DeleteTransaction(ctx, salary.ID, 4))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, salary.ID, 4), storage.ErrNotFound)
	assert.Len(t, fake.sheets[DefaultTransactionsSheet].rows, 2, "header plus one row")
}

func TestUpdateMovesAcrossMonths(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	tx, err := s.AddTransaction(ctx, core.Transaction{Date: "10/03/2024", Content: "Bánh mì", Amount: 20000, Type: core.Expense, Category: "Ăn uống"})
	require.NoError(t, err)

	tx.Date = "10/04/2024"
	assert.ErrorIs(t, s.UpdateTransaction(ctx, tx, 3), storage.ErrMonthMismatch)
	require.NoError(t, s.UpdateTransaction(ctx, tx, 4))

	march, err := s.TransactionsByMonth(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Empty(t, march)
	april, err := s.TransactionsByMonth(ctx, 2024, 4)
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Equal(t, tx.ID, april[0].ID)
}

func TestAmountsTypedAsText(t *testing.T) {
	s, fake := newTestStore(t)
	fake.sheets[DefaultTransactionsSheet].rows = append(fake.sheets[DefaultTransactionsSheet].rows,
		[]any{"legacy-1", "05/04/2024", "Chợ", "1.200.000", "Chi tiêu", "Ăn uống", ""},
		[]any{"", "", "", "", "", "", ""},
		[]any{"legacy-2", "not a date", "x", 1, "Chi tiêu", "Ăn uống"},
	)

	txs, err := s.TransactionsByMonth(context.Background(), 2024, 4)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, core.Dong(1200000), txs[0].Amount)
}

func TestKeywords(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddKeywords(ctx, "Ăn uống", []string{"Phở", "bún"}))
	require.NoError(t, s.AddKeywords(ctx, "Lương", []string{"công ty"}))
	assert.ErrorIs(t, s.AddKeywords(ctx, "Du lịch", []string{"vé"}), storage.ErrUnknownCategory)

	sets, err := s.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.KeywordSet{
		{Category: "Ăn uống", Keywords: "phở, cơm, bún"},
		{Category: "Lương", Keywords: "công ty"},
	}, sets)

	require.NoError(t, s.DeleteKeyword(ctx, "Ăn uống", "CƠM"))
	assert.ErrorIs(t, s.DeleteKeyword(ctx, "Ăn uống", "cơm"), storage.ErrUnknownKeyword)

	sets, err = s.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "phở, bún", sets[0].Keywords)
}
