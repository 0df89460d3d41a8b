// Package backend builds the data store behind the local stub of the
// remote transaction API.
package backend

import (
	"context"
	"time"

	"chitieu/internal/core"
)

// Ports the stub server depends on.
type (
	TransactionReader interface {
		TransactionsByDate(ctx context.Context, day time.Time) ([]core.Transaction, error)
		TransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error)
		SearchTransactions(ctx context.Context, q core.SearchQuery) ([]core.Transaction, error)
	}

	// TransactionWriter mutates transactions. Updates find the transaction
	// by id and month is the partition of its new date; deletes expect the
	// transaction in month. Zero skips either check.
	TransactionWriter interface {
		AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction, month int) error
		DeleteTransaction(ctx context.Context, id core.ID, month int) error
	}

	CategoryReader interface {
		Categories(ctx context.Context) ([]string, error)
	}

	KeywordStore interface {
		Keywords(ctx context.Context) ([]core.KeywordSet, error)
		AddKeywords(ctx context.Context, category string, keywords []string) error
		DeleteKeyword(ctx context.Context, category, keyword string) error
	}
)

// Store is everything a stub backend provides.
type Store interface {
	TransactionReader
	TransactionWriter
	CategoryReader
	KeywordStore
	Close() error
}

// BackendType names a Store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend, SheetsBackend:
		return true
	}
	return false
}

// Config selects and configures a backend.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: directory holding seed_categories.txt
	DataDirectory string

	// Sheets specific
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string
}
