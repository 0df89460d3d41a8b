package services

import (
	"context"

	"chitieu/internal/amqp"
	"chitieu/internal/core"
)

// Remote is the transaction store as the session uses it. *remote.Client
// implements it.
type Remote interface {
	SheetID() string

	TransactionsByDate(ctx context.Context, isoDate string) ([]core.Transaction, error)
	TransactionsByMonth(ctx context.Context, month, year int) ([]core.Transaction, error)
	Categories(ctx context.Context) ([]string, error)
	MonthlyData(ctx context.Context, start, end int) ([]core.MonthlyPoint, error)
	ExpensesByCategory(ctx context.Context, start, end int) ([]core.CategoryAmount, error)
	CategoryMonthlyData(ctx context.Context, category string, start, end, year int) ([]core.CategoryMonthAmount, error)
	Keywords(ctx context.Context) ([]core.KeywordSet, error)
	SearchTransactions(ctx context.Context, q core.SearchQuery, page, limit int) (core.SearchPage, error)

	AddTransaction(ctx context.Context, tx core.Transaction) error
	UpdateTransaction(ctx context.Context, tx core.Transaction, month string) error
	DeleteTransaction(ctx context.Context, id core.ID, month string) error
	AddKeyword(ctx context.Context, category, keywords string) error
	DeleteKeyword(ctx context.Context, category, keyword string) error
}

// Publisher announces applied mutations. *amqp.Client implements it.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.TransactionChange) error
}
