// Package kv defines the opaque key-value contract the tasting log
// persists through. Backends range from an in-process map to cloud
// object stores; the tasting-log store treats them all as a place to
// put one string per key.
//
// Implementations must make SetString atomic with respect to
// GetString: a concurrent reader sees either the previous value or the
// new one in full, never a torn write. Keys and values are opaque;
// backends must not parse them.
package kv

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotFound is returned by GetString for a key that has never been
// set or has been deleted. Callers test for it with errors.Is.
var ErrNotFound = errors.New("key not found")

// Backend stores opaque string values by key.
type Backend interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by backends that hold connections or file
// handles. Callers should type-assert and close on shutdown.
type Closer interface {
	Close() error
}

// Factory creates a backend from opaque string params. Factories
// validate params and construct clients but perform no I/O against the
// store itself, so a misconfigured backend fails on first use, not at
// startup.
type Factory func(params map[string]string, logger *slog.Logger) (Backend, error)
