// Package config loads shelf configuration from config.yaml and SHELF_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/shelf/internal/paths"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"

	envPrefix = "SHELF"
)

// Config keys.
const (
	keyBackend          = "backend"
	keyDataDir          = "data_dir"
	keyDSN              = "dsn"
	keyHost             = "host"
	keyPort             = "port"
	keyDatabase         = "database"
	keyUser             = "user"
	keyPassword         = "password"
	keySSLMode          = "ssl_mode"
	keyQueryTimeout     = "query_timeout"
	keyMaxResolveDepth  = "max_resolve_depth"
	keyResolveCacheSize = "resolve_cache_size"
	keyLogLevel         = "log_level"
)

// envKeys are read from SHELF_<KEY>. data_dir is resolved by the paths
// package instead so the config file keeps precedence over SHELF_DATA_DIR.
var envKeys = []string{
	keyBackend, keyDSN, keyHost, keyPort, keyDatabase, keyUser, keyPassword,
	keySSLMode, keyQueryTimeout, keyMaxResolveDepth, keyResolveCacheSize, keyLogLevel,
}

// Defaults applied before the file and environment are read.
const (
	DefaultBackend          = types.BackendSQLite
	DefaultMaxResolveDepth  = 16
	DefaultResolveCacheSize = 128
	DefaultLogLevel         = "info"
)

// Load reads config.yaml from configDir, applies SHELF_* overrides and
// resolves the data directory. A missing config.yaml is not an error.
// dataDirFlag, when non-empty, overrides every other data directory source.
func Load(configDir, dataDirFlag string) (types.Config, error) {
	v := viper.New()
	v.SetDefault(keyBackend, DefaultBackend)
	v.SetDefault(keyMaxResolveDepth, DefaultMaxResolveDepth)
	v.SetDefault(keyResolveCacheSize, DefaultResolveCacheSize)
	v.SetDefault(keyLogLevel, DefaultLogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Backend == types.BackendSQLite {
		dir, err := paths.ResolveDataDir(dataDirFlag, v.GetString(keyDataDir))
		if err != nil {
			return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configFile holds the structure written to a fresh config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level"`
}

// WriteDefault creates configDir and a starter config.yaml selecting the
// SQLite backend. An existing file is left untouched. It returns the path
// of the config file.
func WriteDefault(configDir, dataDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	path := filepath.Join(configDir, FileName)
	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&configFile{
		Backend:  DefaultBackend,
		DataDir:  dataDir,
		LogLevel: DefaultLogLevel,
	})
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
