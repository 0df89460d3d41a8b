package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"chitieu/internal/core"
)

// SQLiteRepository keeps stub transactions, categories and keywords in a
// SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases and writes consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const txColumns = `id, day, month, year, amount, type, category, content, note`

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	out := []core.Transaction{}
	for rows.Next() {
		var (
			id                           string
			day, month, year, amount     int64
			typ, category, content, note string
		)
		if err := rows.Scan(&id, &day, &month, &year, &amount, &typ, &category, &content, &note); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, core.Transaction{
			ID:       core.ID(id),
			Date:     fmt.Sprintf("%02d/%02d/%04d", day, month, year),
			Amount:   core.Dong(amount),
			Type:     core.TxType(typ),
			Category: category,
			Content:  content,
			Note:     note,
		})
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) TransactionsByDate(ctx context.Context, day time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE year = ? AND month = ? AND day = ? ORDER BY created_at, rowid`,
		day.Year(), int(day.Month()), day.Day())
	if err != nil {
		return nil, fmt.Errorf("transactions by date: %w", err)
	}
	return scanTransactions(rows)
}

func (r *SQLiteRepository) TransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE year = ? AND month = ? ORDER BY day, created_at, rowid`,
		year, month)
	if err != nil {
		return nil, fmt.Errorf("transactions by month: %w", err)
	}
	return scanTransactions(rows)
}

// SearchTransactions filters year, category and amount in SQL. Content is
// matched afterwards so case folding covers Vietnamese letters, which
// SQLite's LOWER does not.
func (r *SQLiteRepository) SearchTransactions(ctx context.Context, q core.SearchQuery) ([]core.Transaction, error) {
	var (
		where = []string{"year = ?"}
		args  = []any{q.Year}
	)
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.Amount != "" {
		amount, err := strconv.ParseInt(q.Amount, 10, 64)
		if err != nil {
			return []core.Transaction{}, nil
		}
		where = append(where, "amount = ?")
		args = append(args, amount)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE `+strings.Join(where, " AND ")+
			` ORDER BY year DESC, month DESC, day DESC, created_at DESC, rowid DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	out := txs[:0]
	for _, tx := range txs {
		if q.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *SQLiteRepository) categoryExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return n > 0, nil
}

// AddTransaction stores tx under a new id and returns it.
func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	d, err := core.ParseDisplayDate(tx.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	if ok, err := r.categoryExists(ctx, tx.Category); err != nil {
		return core.Transaction{}, err
	} else if !ok {
		return core.Transaction{}, fmt.Errorf("%w: %q", ErrUnknownCategory, tx.Category)
	}

	tx.ID = core.ID(uuid.NewString())
	tx.Date = core.FormatDisplay(d)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), d.Day(), int(d.Month()), d.Year(), int64(tx.Amount), string(tx.Type), tx.Category, tx.Content, tx.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

// monthOf returns the stored month of id, or ErrNotFound.
func (r *SQLiteRepository) monthOf(ctx context.Context, id core.ID) (int, error) {
	var month int
	err := r.db.QueryRowContext(ctx, `SELECT month FROM transactions WHERE id = ?`, id.String()).Scan(&month)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup transaction: %w", err)
	}
	return month, nil
}

func (r *SQLiteRepository) checkMonth(ctx context.Context, id core.ID, month int) error {
	stored, err := r.monthOf(ctx, id)
	if err != nil {
		return err
	}
	if month != 0 && stored != month {
		return fmt.Errorf("%w: %s not in month %02d", ErrMonthMismatch, id, month)
	}
	return nil
}

// UpdateTransaction rewrites tx wherever it is stored. month is the
// partition of the new date; zero skips the check.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction, month int) error {
	d, err := core.ParseDisplayDate(tx.Date)
	if err != nil {
		return err
	}
	if err := CheckWriteMonth(tx.ID, d, month); err != nil {
		return err
	}
	if _, err := r.monthOf(ctx, tx.ID); err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE transactions SET day = ?, month = ?, year = ?, amount = ?, type = ?, category = ?, content = ?, note = ? WHERE id = ?`,
		d.Day(), int(d.Month()), d.Year(), int64(tx.Amount), string(tx.Type), tx.Category, tx.Content, tx.Note, tx.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id core.ID, month int) error {
	if err := r.checkMonth(ctx, id, month); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Keywords(ctx context.Context) ([]core.KeywordSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, keywords FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()
	out := []core.KeywordSet{}
	for rows.Next() {
		var k core.KeywordSet
		if err := rows.Scan(&k.Category, &k.Keywords); err != nil {
			return nil, fmt.Errorf("scan keywords: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) keywordsOf(ctx context.Context, category string) ([]string, error) {
	var joined string
	err := r.db.QueryRowContext(ctx, `SELECT keywords FROM categories WHERE name = ?`, category).Scan(&joined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup keywords: %w", err)
	}
	return core.SplitKeywords(joined), nil
}

func (r *SQLiteRepository) setKeywords(ctx context.Context, category string, keywords []string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE categories SET keywords = ? WHERE name = ?`,
		strings.Join(keywords, ", "), category)
	if err != nil {
		return fmt.Errorf("update keywords: %w", err)
	}
	return nil
}

// AddKeywords appends keywords not already present (ignoring case).
func (r *SQLiteRepository) AddKeywords(ctx context.Context, category string, keywords []string) error {
	current, err := r.keywordsOf(ctx, category)
	if err != nil {
		return err
	}
	return r.setKeywords(ctx, category, MergeKeywords(current, keywords))
}

func (r *SQLiteRepository) DeleteKeyword(ctx context.Context, category, keyword string) error {
	current, err := r.keywordsOf(ctx, category)
	if err != nil {
		return err
	}
	next, ok := RemoveKeyword(current, keyword)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKeyword, keyword)
	}
	return r.setKeywords(ctx, category, next)
}
