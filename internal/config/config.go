// Package config loads process configuration from the environment, an
// optional config file and command-line flags, all through viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys. Environment variables use the same upper-case names.
const (
	KeyAPIURL           = "api_url"
	KeySheetID          = "sheet_id"
	KeyProxyBase        = "proxy_base"
	KeyRequestTimeout   = "request_timeout"
	KeyPort             = "port"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyStaleGuard       = "stale_guard"
	KeyPageSize         = "page_size"
	KeyCategoryCacheTTL = "category_cache_ttl"
	KeyStubBackend      = "stub_backend"
	KeyStubPort         = "stub_port"
	KeySQLiteDBPath     = "sqlite_db_path"
	KeyDataDirectory    = "data_directory"
	KeySpreadsheetID    = "google_spreadsheet_id"
	KeyCredentialsFile  = "google_application_credentials"
	KeyCredentialsJSON  = "google_credentials_json"
	KeyAMQPURL          = "amqp_url"
	KeyAMQPExchange     = "amqp_exchange"
)

const DefaultProxyBase = "https://testhmh.netlify.app/.netlify/functions/proxy?url="

type Config struct {
	// Launch parameters of the remote store
	APIURL    string
	SheetID   string
	ProxyBase string
	// RequestTimeout bounds remote calls; zero means none.
	RequestTimeout time.Duration

	// HTTP front-end
	Port string

	LogLevel  string
	LogFormat string

	// StaleGuard discards fetch results superseded by a newer fetch of
	// the same view.
	StaleGuard       bool
	PageSize         int
	CategoryCacheTTL time.Duration

	// Local stub of the remote store
	StubBackend   string
	StubPort      string
	SQLiteDBPath  string
	DataDirectory string
	// Google Sheets stub backend. SpreadsheetID defaults to SheetID.
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string

	// Change notifications; empty URL disables them.
	AMQPURL      string
	AMQPExchange string
}

// ConfigError lists every configuration problem found.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n- %s", strings.Join(e.Problems, "\n- "))
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeySheetID, "")
	v.SetDefault(KeyProxyBase, DefaultProxyBase)
	v.SetDefault(KeyRequestTimeout, time.Duration(0))
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyStaleGuard, false)
	v.SetDefault(KeyPageSize, 10)
	v.SetDefault(KeyCategoryCacheTTL, 10*time.Minute)
	v.SetDefault(KeyStubBackend, "memory")
	v.SetDefault(KeyStubPort, "8090")
	v.SetDefault(KeySQLiteDBPath, "./data/chitieu.db")
	v.SetDefault(KeyDataDirectory, "data")
	v.SetDefault(KeySpreadsheetID, "")
	v.SetDefault(KeyCredentialsFile, "")
	v.SetDefault(KeyCredentialsJSON, "")
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "chitieu.changes")
	v.AutomaticEnv()
}

// Load reads the configuration from v. Call SetDefaults first.
func Load(v *viper.Viper) *Config {
	return &Config{
		APIURL:           strings.TrimSpace(v.GetString(KeyAPIURL)),
		SheetID:          strings.TrimSpace(v.GetString(KeySheetID)),
		ProxyBase:        v.GetString(KeyProxyBase),
		RequestTimeout:   v.GetDuration(KeyRequestTimeout),
		Port:             v.GetString(KeyPort),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
		StaleGuard:       v.GetBool(KeyStaleGuard),
		PageSize:         v.GetInt(KeyPageSize),
		CategoryCacheTTL: v.GetDuration(KeyCategoryCacheTTL),
		StubBackend:      v.GetString(KeyStubBackend),
		StubPort:         v.GetString(KeyStubPort),
		SQLiteDBPath:     v.GetString(KeySQLiteDBPath),
		DataDirectory:    v.GetString(KeyDataDirectory),
		SpreadsheetID:    strings.TrimSpace(v.GetString(KeySpreadsheetID)),
		CredentialsFile:  strings.TrimSpace(v.GetString(KeyCredentialsFile)),
		CredentialsJSON:  strings.TrimSpace(v.GetString(KeyCredentialsJSON)),
		AMQPURL:          v.GetString(KeyAMQPURL),
		AMQPExchange:     v.GetString(KeyAMQPExchange),
	}
}

// Validate checks everything except the launch parameters.
func (c *Config) Validate() error {
	var problems []string

	for name, port := range map[string]string{"port": c.Port, "stub port": c.StubPort} {
		if p, err := strconv.Atoi(port); err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s '%s': must be a number", name, port))
		} else if p < 1 || p > 65535 {
			problems = append(problems, fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, p))
		}
	}

	if c.PageSize < 1 || c.PageSize > 100 {
		problems = append(problems, fmt.Sprintf("invalid page size %d: must be between 1 and 100", c.PageSize))
	}
	if c.RequestTimeout < 0 {
		problems = append(problems, fmt.Sprintf("invalid request timeout %v: must not be negative", c.RequestTimeout))
	}
	if c.CategoryCacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid category cache ttl %v: must be at least 1 second", c.CategoryCacheTTL))
	}

	switch c.StubBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite stub backend")
		}
	case "sheets":
		if c.CredentialsFile == "" && c.CredentialsJSON == "" {
			problems = append(problems, "GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS_JSON is required for sheets stub backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid stub backend '%s': must be one of [memory sqlite sheets]", c.StubBackend))
	}

	if c.ProxyBase != "" {
		if u, err := url.Parse(c.ProxyBase); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			problems = append(problems, fmt.Sprintf("invalid proxy base '%s': must be an http(s) URL", c.ProxyBase))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// RequireLaunchParameters fails when the remote store cannot be addressed.
func (c *Config) RequireLaunchParameters() error {
	var problems []string
	if c.APIURL == "" {
		problems = append(problems, "API_URL (--api) is required")
	} else if u, err := url.Parse(c.APIURL); err != nil || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid API_URL '%s': must be an absolute URL", c.APIURL))
	}
	if c.SheetID == "" {
		problems = append(problems, "SHEET_ID (--sheet-id) is required")
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}
