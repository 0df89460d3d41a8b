package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
	"chitieu/internal/storage"
)

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	cats, err := NewFromFiles(dir).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories, cats)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_categories.txt"),
		[]byte("# header\nĂn uống\nLương\nĂn uống\n\n"), 0o644))
	cats, err = NewFromFiles(dir).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ăn uống", "Lương"}, cats)
}

func TestTransactionsOrderedByDay(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultCategories)

	for _, date := range []string{"20/03/2024", "15/03/2024", "15/03/2024", "01/04/2024"} {
		_, err := s.AddTransaction(ctx, core.Transaction{Date: date, Amount: 1000, Type: core.Expense, Category: "Khác", Content: date})
		require.NoError(t, err)
	}

	march, err := s.TransactionsByMonth(ctx, 2024, 3)
	require.NoError(t, err)
	require.Len(t, march, 3)
	assert.Equal(t, "15/03/2024", march[0].Date)
	assert.Equal(t, "20/03/2024", march[2].Date)

	day, err := s.TransactionsByDate(ctx, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Len(t, day, 2)
}

func TestUpdateDeleteRespectMonth(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultCategories)
	tx, err := s.AddTransaction(ctx, core.Transaction{Date: "10/04/2024", Amount: 1000, Type: core.Income, Category: "Lương"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, tx.ID, 3), storage.ErrMonthMismatch)
	tx.Content = "updated"
	require.NoError(t, s.UpdateTransaction(ctx, tx, 4))

	got, err := s.TransactionsByMonth(ctx, 2024, 4)
	require.NoError(t, err)
	assert.Equal(t, "updated", got[0].Content)

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID, 4))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, tx.ID, 4), storage.ErrNotFound)
}

func TestUpdateMovesAcrossMonths(t *testing.T) {
	ctx := context.Background()
	s := New(DefaultCategories)
	tx, err := s.AddTransaction(ctx, core.Transaction{Date: "10/03/2024", Amount: 1000, Type: core.Expense, Category: "Khác"})
	require.NoError(t, err)

	tx.Date = "10/04/2024"
	assert.ErrorIs(t, s.UpdateTransaction(ctx, tx, 3), storage.ErrMonthMismatch, "month names the new date")
	require.NoError(t, s.UpdateTransaction(ctx, tx, 4))

	march, err := s.TransactionsByMonth(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Empty(t, march)
	april, err := s.TransactionsByMonth(ctx, 2024, 4)
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Equal(t, tx.ID, april[0].ID)

	tx.ID = "missing"
	assert.ErrorIs(t, s.UpdateTransaction(ctx, tx, 4), storage.ErrNotFound)
}

func TestAddValidates(t *testing.T) {
	s := New([]string{"A"})
	_, err := s.AddTransaction(context.Background(), core.Transaction{Date: "10/04/2024", Amount: 0, Category: "A"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = s.AddTransaction(context.Background(), core.Transaction{Date: "10/04/2024", Amount: 1, Category: "B"})
	assert.ErrorIs(t, err, storage.ErrUnknownCategory)
}

func TestKeywords(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"Ăn uống", "Khác"})
	require.NoError(t, s.AddKeywords(ctx, "Ăn uống", []string{"phở", "bún"}))
	require.NoError(t, s.DeleteKeyword(ctx, "Ăn uống", "PHỞ"))
	assert.ErrorIs(t, s.DeleteKeyword(ctx, "Khác", "x"), storage.ErrUnknownKeyword)

	sets, err := s.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.KeywordSet{{Category: "Ăn uống", Keywords: "bún"}, {Category: "Khác", Keywords: ""}}, sets)
}
