package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "oracle", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "sqlite with empty DataDir is valid at config level",
			config:  Config{Backend: "sqlite", DataDir: ""},
			wantErr: nil,
		},
		{
			name:    "postgres without database or DSN",
			config:  Config{Backend: "postgres", Host: "db"},
			wantErr: ErrDatabaseEmpty,
		},
		{
			name:    "postgres with DSN",
			config:  Config{Backend: "postgres", DSN: "postgres://u:p@db/test"},
			wantErr: nil,
		},
		{
			name:    "mysql with database",
			config:  Config{Backend: "mysql", Host: "db", Database: "test"},
			wantErr: nil,
		},
		{
			name:    "negative depth",
			config:  Config{Backend: "sqlite", MaxResolveDepth: -1},
			wantErr: ErrInvalidDepth,
		},
		{
			name:    "negative cache size",
			config:  Config{Backend: "sqlite", ResolveCacheSize: -1},
			wantErr: ErrInvalidCacheSize,
		},
		{
			name:    "negative timeout",
			config:  Config{Backend: "sqlite", QueryTimeout: -time.Second},
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "unknown log level",
			config:  Config{Backend: "sqlite", LogLevel: "verbose"},
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
