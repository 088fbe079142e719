// Package kvstore provides the byte-valued key-value backends that hold
// detection history.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("key not found")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrMissingDSN    = errors.New("store dsn is required")
	ErrEmptyKey      = errors.New("store key is empty")
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Store is a minimal key-value store. Set replaces the whole value.
type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove succeeds when the key is already absent.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Settings selects and configures a backend.
type Settings struct {
	Driver string
	Path   string // file directory or SQLite database path
	DSN    string // redis URL or PostgreSQL connection string
}

// Open builds the backend named by s.Driver.
func Open(ctx context.Context, s Settings) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return NewFile(s.Path)
	case DriverSQLite:
		return NewSQLite(ctx, s.Path)
	case DriverRedis:
		if s.DSN == "" {
			return nil, fmt.Errorf("redis: %w", ErrMissingDSN)
		}
		return NewRedis(ctx, s.DSN)
	case DriverPostgres:
		if s.DSN == "" {
			return nil, fmt.Errorf("postgres: %w", ErrMissingDSN)
		}
		return NewPostgres(ctx, s.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
