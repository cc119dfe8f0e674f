package types

import (
	"errors"
	"time"
)

// Config selects a backend and its connection parameters.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// DataDir holds the SQLite database file. ":memory:" opens a private
	// in-memory database.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// DSN, when set, is passed to the client-server driver verbatim and the
	// individual connection fields are ignored.
	DSN      string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"`
	Database string `json:"database" yaml:"database" mapstructure:"database"`
	User     string `json:"user" yaml:"user" mapstructure:"user"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode" mapstructure:"ssl_mode"`

	// QueryTimeout bounds every gateway call. Zero leaves deadlines to the
	// caller's context.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout" mapstructure:"query_timeout"`

	MaxResolveDepth  int    `json:"max_resolve_depth" yaml:"max_resolve_depth" mapstructure:"max_resolve_depth"`
	ResolveCacheSize int    `json:"resolve_cache_size" yaml:"resolve_cache_size" mapstructure:"resolve_cache_size"`
	LogLevel         string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// MemoryDataDir selects an in-memory SQLite database.
const MemoryDataDir = ":memory:"

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrDatabaseEmpty    = errors.New("database name or DSN required")
	ErrInvalidDepth     = errors.New("max resolve depth must not be negative")
	ErrInvalidCacheSize = errors.New("resolve cache size must not be negative")
	ErrInvalidTimeout   = errors.New("query timeout must not be negative")
	ErrInvalidLogLevel  = errors.New("unknown log level")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendMySQL:    true,
}

var knownLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend != BackendSQLite && c.DSN == "" && c.Database == "" {
		return ErrDatabaseEmpty
	}
	if c.MaxResolveDepth < 0 {
		return ErrInvalidDepth
	}
	if c.ResolveCacheSize < 0 {
		return ErrInvalidCacheSize
	}
	if c.QueryTimeout < 0 {
		return ErrInvalidTimeout
	}
	if !knownLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}
	return nil
}
