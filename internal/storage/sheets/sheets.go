// Package sheets stores stub data in a Google spreadsheet through the
// Sheets v4 API.
//
// Layout, each with a header in row 1:
//
//	Transactions  A:G  id, date (DD/MM/YYYY), content, amount, type, category, note
//	Categories    A    name
//	Keywords      A:B  category, comma-joined keywords
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/storage"
)

const (
	DefaultTransactionsSheet = "Transactions"
	DefaultCategoriesSheet   = "Categories"
	DefaultKeywordsSheet     = "Keywords"
)

type Config struct {
	SpreadsheetID string
	// Service account credentials, inline or as a file path.
	CredentialsJSON string
	CredentialsFile string

	TransactionsSheet string
	CategoriesSheet   string
	KeywordsSheet     string

	// Extra client options, e.g. an endpoint and HTTP client in tests.
	ClientOptions []option.ClientOption
}

type Store struct {
	svc      *gsheet.Service
	id       string
	txSheet  string
	catSheet string
	kwSheet  string
	logger   *log.Logger

	// mu serialises read-modify-write cycles from this process.
	mu       sync.Mutex
	sheetIDs map[string]int64
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}

	opts := []option.ClientOption{option.WithScopes(gsheet.SpreadsheetsScope)}
	switch {
	case len(cfg.ClientOptions) > 0:
		opts = append(opts, cfg.ClientOptions...)
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(raw))
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{
		svc:      svc,
		id:       cfg.SpreadsheetID,
		txSheet:  orDefault(cfg.TransactionsSheet, DefaultTransactionsSheet),
		catSheet: orDefault(cfg.CategoriesSheet, DefaultCategoriesSheet),
		kwSheet:  orDefault(cfg.KeywordsSheet, DefaultKeywordsSheet),
		logger:   logger.WithComponent(log.ComponentStorage),
		sheetIDs: make(map[string]int64),
	}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) read(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.id, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (s *Store) write(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := s.svc.Spreadsheets.Values.Update(s.id, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (s *Store) appendRow(ctx context.Context, rng string, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	if _, err := s.svc.Spreadsheets.Values.Append(s.id, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}

// row is a transaction and the 1-based sheet row holding it.
type row struct {
	n   int
	tx  core.Transaction
	day time.Time
}

func (s *Store) transactions(ctx context.Context) ([]row, error) {
	values, err := s.read(ctx, s.txSheet+"!A2:G")
	if err != nil {
		return nil, err
	}
	out := make([]row, 0, len(values))
	for i, cells := range values {
		id := cellString(cells, 0)
		if id == "" {
			continue
		}
		day, err := core.ParseDisplayDate(cellString(cells, 1))
		if err != nil {
			s.logger.Warn("Skipping row with bad date", "row", i+2, log.FieldError, err.Error())
			continue
		}
		out = append(out, row{
			n:   i + 2,
			day: day,
			tx: core.Transaction{
				ID:       core.ID(id),
				Date:     core.FormatDisplay(day),
				Content:  cellString(cells, 2),
				Amount:   cellAmount(cells, 3),
				Type:     core.TxType(cellString(cells, 4)),
				Category: cellString(cells, 5),
				Note:     cellString(cells, 6),
			},
		})
	}
	// Sheet order breaks ties.
	sort.SliceStable(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })
	return out, nil
}

func (s *Store) filter(ctx context.Context, match func(row) bool) ([]core.Transaction, error) {
	rows, err := s.transactions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0)
	for _, r := range rows {
		if match(r) {
			out = append(out, r.tx)
		}
	}
	return out, nil
}

func (s *Store) TransactionsByDate(ctx context.Context, day time.Time) ([]core.Transaction, error) {
	y, m, d := day.Date()
	return s.filter(ctx, func(r row) bool {
		ry, rm, rd := r.day.Date()
		return ry == y && rm == m && rd == d
	})
}

func (s *Store) TransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	return s.filter(ctx, func(r row) bool {
		return r.day.Year() == year && int(r.day.Month()) == month
	})
}

// SearchTransactions returns matches newest first.
func (s *Store) SearchTransactions(ctx context.Context, q core.SearchQuery) ([]core.Transaction, error) {
	out, err := s.filter(ctx, func(r row) bool { return q.Matches(r.tx) })
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func txCells(tx core.Transaction) []any {
	return []any{string(tx.ID), tx.Date, tx.Content, int64(tx.Amount), string(tx.Type), tx.Category, tx.Note}
}

func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	day, err := core.ParseDisplayDate(tx.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.requireCategory(ctx, tx.Category); err != nil {
		return core.Transaction{}, err
	}

	tx.ID = core.ID(uuid.NewString())
	tx.Date = core.FormatDisplay(day)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendRow(ctx, s.txSheet+"!A:G", txCells(tx)); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) lookup(ctx context.Context, id core.ID, month int) (row, error) {
	rows, err := s.transactions(ctx)
	if err != nil {
		return row{}, err
	}
	for _, r := range rows {
		if r.tx.ID != id {
			continue
		}
		if month != 0 && int(r.day.Month()) != month {
			return row{}, fmt.Errorf("%w: %s not in month %02d", storage.ErrMonthMismatch, id, month)
		}
		return r, nil
	}
	return row{}, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction, month int) error {
	day, err := core.ParseDisplayDate(tx.Date)
	if err != nil {
		return err
	}
	if err := storage.CheckWriteMonth(tx.ID, day, month); err != nil {
		return err
	}
	tx.Date = core.FormatDisplay(day)

	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.lookup(ctx, tx.ID, 0)
	if err != nil {
		return err
	}
	return s.write(ctx, fmt.Sprintf("%s!A%d:G%d", s.txSheet, r.n, r.n), [][]any{txCells(tx)})
}

func (s *Store) DeleteTransaction(ctx context.Context, id core.ID, month int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.lookup(ctx, id, month)
	if err != nil {
		return err
	}
	sheetID, err := s.sheetID(ctx, s.txSheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(r.n - 1),
			EndIndex:   int64(r.n),
			// The first sheet's id is 0.
			ForceSendFields: []string{"SheetId"},
		}},
	}}}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", r.n, err)
	}
	return nil
}

// sheetID resolves a sheet title to its numeric id. Caller holds mu.
func (s *Store) sheetID(ctx context.Context, title string) (int64, error) {
	if id, ok := s.sheetIDs[title]; ok {
		return id, nil
	}
	doc, err := s.svc.Spreadsheets.Get(s.id).Fields(googleapi.Field("sheets.properties")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := s.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", title)
	}
	return id, nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	values, err := s.read(ctx, s.catSheet+"!A2:A")
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, cells := range values {
		v := cellString(cells, 0)
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) requireCategory(ctx context.Context, name string) error {
	cats, err := s.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		if c == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", storage.ErrUnknownCategory, name)
}

// keywordRows maps each category to its keywords and 1-based sheet row.
func (s *Store) keywordRows(ctx context.Context) (map[string][]string, map[string]int, error) {
	values, err := s.read(ctx, s.kwSheet+"!A2:B")
	if err != nil {
		return nil, nil, err
	}
	lists := make(map[string][]string, len(values))
	rows := make(map[string]int, len(values))
	for i, cells := range values {
		cat := cellString(cells, 0)
		if cat == "" {
			continue
		}
		lists[cat] = core.SplitKeywords(cellString(cells, 1))
		rows[cat] = i + 2
	}
	return lists, rows, nil
}

// Keywords lists every category in category order, empty sets included.
func (s *Store) Keywords(ctx context.Context) ([]core.KeywordSet, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	lists, _, err := s.keywordRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.KeywordSet, 0, len(cats))
	for _, c := range cats {
		out = append(out, core.KeywordSet{Category: c, Keywords: strings.Join(lists[c], ", ")})
	}
	return out, nil
}

func (s *Store) AddKeywords(ctx context.Context, category string, keywords []string) error {
	if err := s.requireCategory(ctx, category); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lists, rows, err := s.keywordRows(ctx)
	if err != nil {
		return err
	}
	merged := storage.MergeKeywords(lists[category], keywords)
	return s.saveKeywords(ctx, category, merged, rows)
}

func (s *Store) DeleteKeyword(ctx context.Context, category, keyword string) error {
	if err := s.requireCategory(ctx, category); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lists, rows, err := s.keywordRows(ctx)
	if err != nil {
		return err
	}
	next, ok := storage.RemoveKeyword(lists[category], keyword)
	if !ok {
		return fmt.Errorf("%w: %q", storage.ErrUnknownKeyword, keyword)
	}
	return s.saveKeywords(ctx, category, next, rows)
}

func (s *Store) saveKeywords(ctx context.Context, category string, keywords []string, rows map[string]int) error {
	joined := strings.Join(keywords, ", ")
	if n, ok := rows[category]; ok {
		return s.write(ctx, fmt.Sprintf("%s!B%d", s.kwSheet, n), [][]any{{joined}})
	}
	return s.appendRow(ctx, s.kwSheet+"!A:B", []any{category, joined})
}

func cellString(cells []any, i int) string {
	if i >= len(cells) || cells[i] == nil {
		return ""
	}
	switch v := cells[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// cellAmount reads an amount cell, numeric or typed as text ("1.200.000").
func cellAmount(cells []any, i int) core.Dong {
	if i >= len(cells) {
		return 0
	}
	switch v := cells[i].(type) {
	case float64:
		return core.Dong(int64(v))
	case string:
		return core.ParseNumber(v)
	}
	return 0
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
