// Package memory is an in-process stub store. Nothing survives a restart.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chitieu/internal/core"
	"chitieu/internal/storage"
)

// DefaultCategories seed a store when no seed file is present.
var DefaultCategories = []string{
	"Ăn uống", "Di chuyển", "Nhà ở", "Mua sắm", "Giải trí",
	"Sức khỏe", "Giáo dục", "Lương", "Thưởng", "Khác",
}

type record struct {
	tx  core.Transaction
	day time.Time
	seq int
}

type Store struct {
	mu       sync.Mutex
	cats     []string
	keywords map[string][]string
	items    map[core.ID]record
	seq      int
}

func New(cats []string) *Store {
	return &Store{
		cats:     dedupe(cats),
		keywords: make(map[string][]string),
		items:    make(map[core.ID]record),
	}
}

// NewFromFiles seeds categories from base/seed_categories.txt, one per line,
// falling back to DefaultCategories.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	return New(cats)
}

func (s *Store) Close() error { return nil }

func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func (s *Store) hasCategory(name string) bool {
	for _, c := range s.cats {
		if c == name {
			return true
		}
	}
	return false
}

// collect returns matching transactions ordered by date then insertion.
func (s *Store) collect(match func(record) bool) []core.Transaction {
	recs := make([]record, 0)
	for _, r := range s.items {
		if match(r) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].day.Equal(recs[j].day) {
			return recs[i].day.Before(recs[j].day)
		}
		return recs[i].seq < recs[j].seq
	})
	out := make([]core.Transaction, len(recs))
	for i, r := range recs {
		out[i] = r.tx
	}
	return out
}

func (s *Store) TransactionsByDate(_ context.Context, day time.Time) ([]core.Transaction, error) {
	y, m, d := day.Date()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(r record) bool {
		ry, rm, rd := r.day.Date()
		return ry == y && rm == m && rd == d
	}), nil
}

func (s *Store) TransactionsByMonth(_ context.Context, year, month int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(r record) bool {
		return r.day.Year() == year && int(r.day.Month()) == month
	}), nil
}

// SearchTransactions returns matches newest first.
func (s *Store) SearchTransactions(_ context.Context, q core.SearchQuery) ([]core.Transaction, error) {
	s.mu.Lock()
	out := s.collect(func(r record) bool { return q.Matches(r.tx) })
	s.mu.Unlock()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	day, err := core.ParseDisplayDate(tx.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCategory(tx.Category) {
		return core.Transaction{}, fmt.Errorf("%w: %q", storage.ErrUnknownCategory, tx.Category)
	}
	s.seq++
	tx.ID = core.ID(uuid.NewString())
	tx.Date = core.FormatDisplay(day)
	s.items[tx.ID] = record{tx: tx, day: day, seq: s.seq}
	return tx, nil
}

func (s *Store) lookup(id core.ID, month int) (record, error) {
	r, ok := s.items[id]
	if !ok {
		return record{}, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if month != 0 && int(r.day.Month()) != month {
		return record{}, fmt.Errorf("%w: %s not in month %02d", storage.ErrMonthMismatch, id, month)
	}
	return r, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction, month int) error {
	day, err := core.ParseDisplayDate(tx.Date)
	if err != nil {
		return err
	}
	if err := storage.CheckWriteMonth(tx.ID, day, month); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.lookup(tx.ID, 0)
	if err != nil {
		return err
	}
	tx.Date = core.FormatDisplay(day)
	r.tx = tx
	r.day = day
	s.items[tx.ID] = r
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id core.ID, month int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(id, month); err != nil {
		return err
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Keywords(_ context.Context) ([]core.KeywordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.KeywordSet, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, core.KeywordSet{Category: c, Keywords: strings.Join(s.keywords[c], ", ")})
	}
	return out, nil
}

func (s *Store) AddKeywords(_ context.Context, category string, keywords []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCategory(category) {
		return fmt.Errorf("%w: %q", storage.ErrUnknownCategory, category)
	}
	s.keywords[category] = storage.MergeKeywords(s.keywords[category], keywords)
	return nil
}

func (s *Store) DeleteKeyword(_ context.Context, category, keyword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCategory(category) {
		return fmt.Errorf("%w: %q", storage.ErrUnknownCategory, category)
	}
	next, ok := storage.RemoveKeyword(s.keywords[category], keyword)
	if !ok {
		return fmt.Errorf("%w: %q", storage.ErrUnknownKeyword, keyword)
	}
	s.keywords[category] = next
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe trims, drops blanks and repeats, and keeps first-seen order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
