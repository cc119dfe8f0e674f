// Package shelf opens a types.Gateway for a configured backend.
//
// Example:
//
//	gw, err := shelf.OpenMemory(ctx)
//	if err != nil {
//	    return err
//	}
//	defer gw.Close()
//
//	if err := gw.Create(ctx, author); err != nil {
//	    return err
//	}
//	a := types.MustRecord(author, types.Values{"name": "Ursula"})
//	err = gw.Save(ctx, a)
package shelf

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/shelf/internal/config"
	"github.com/mesh-intelligence/shelf/internal/dialect"
	"github.com/mesh-intelligence/shelf/internal/paths"
	"github.com/mesh-intelligence/shelf/internal/store"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Version is the module version.
const Version = "0.1.0"

type options struct {
	logger *zap.SugaredLogger
}

// Option configures Open.
type Option func(*options)

// WithLogger replaces the logger built from Config.LogLevel.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = l }
}

// Open validates cfg, connects to its backend and returns a Gateway.
// The connection is verified with a ping before Open returns.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (types.Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		l, err := newLogger(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		o.logger = l
	}

	d, err := dialect.ByName(cfg.Backend)
	if err != nil {
		return nil, err
	}
	db, err := d.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &types.PersistenceError{Op: "connect", Table: cfg.Backend, Kind: types.KindConnection, Err: err}
	}
	o.logger.Debugf("connected to %s backend", d.Name())

	return store.New(db, d,
		store.WithLogger(o.logger),
		store.WithTimeout(cfg.QueryTimeout),
		store.WithMaxDepth(cfg.MaxResolveDepth),
		store.WithCacheSize(cfg.ResolveCacheSize),
	), nil
}

// OpenDir loads config.yaml from configDir, or from the default config
// directory when configDir is empty, and opens the configured backend.
func OpenDir(ctx context.Context, configDir string, opts ...Option) (types.Gateway, error) {
	dir, err := paths.ResolveConfigDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(dir, "")
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg, opts...)
}

// OpenMemory opens a fresh in-memory SQLite database.
func OpenMemory(ctx context.Context, opts ...Option) (types.Gateway, error) {
	return Open(ctx, types.Config{
		Backend:  types.BackendSQLite,
		DataDir:  types.MemoryDataDir,
		LogLevel: config.DefaultLogLevel,
	}, opts...)
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", types.ErrInvalidLogLevel, level)
		}
		lvl = parsed
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}
