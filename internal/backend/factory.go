package backend

import (
	"context"
	"fmt"

	"chitieu/internal/log"
	"chitieu/internal/storage"
	"chitieu/internal/storage/memory"
	"chitieu/internal/storage/sheets"
)

// Open creates the Store described by cfg. The caller closes it.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentBackend)

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dir)
		return memory.NewFromFiles(dir), nil
	case SheetsBackend:
		store, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.SpreadsheetID,
			CredentialsFile: cfg.CredentialsFile,
			CredentialsJSON: cfg.CredentialsJSON,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize sheets backend: %w", err)
		}
		logger.InfoContext(ctx, "Initialized sheets backend", "spreadsheet_id", cfg.SpreadsheetID)
		return store, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
}
