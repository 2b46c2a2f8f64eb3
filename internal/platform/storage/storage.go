// Package storage provides the key/value backends that persist client session data.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: closed")

// Storage is a string key/value store with atomic multi-key writes.
//
// GetMany returns only the keys that exist. SetMany writes every pair or none.
// SetManyIf does the same only while guardKey still holds expected, and reports
// whether it wrote; a missing guardKey never matches. Delete ignores missing keys.
type Storage interface {
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) error
	SetManyIf(ctx context.Context, guardKey, expected string, values map[string]string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
