package backend

import (
	"errors"
	"fmt"

	"chitieu/internal/config"
)

// FromAppConfig picks the stub backend settings out of the app config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	cfg := Config{
		Type:          BackendType(appConfig.StubBackend),
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDirectory,

		SpreadsheetID:   appConfig.SpreadsheetID,
		CredentialsFile: appConfig.CredentialsFile,
		CredentialsJSON: appConfig.CredentialsJSON,
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = appConfig.SheetID
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %q (want one of %v)", c.Type, Types())
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.Type == SheetsBackend {
		if c.SpreadsheetID == "" {
			return errors.New("spreadsheet id is required for sheets backend")
		}
		if c.CredentialsFile == "" && c.CredentialsJSON == "" {
			return errors.New("service account credentials are required for sheets backend")
		}
	}
	return nil
}

// Types lists the valid backend types.
func Types() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend}
}
