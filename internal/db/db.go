package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMulti returns values in key order; a missing key yields a nil entry.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Del(ctx context.Context, keys ...string) error
	// CompareAndSwap replaces the value at key with next only while it still
	// equals prev. A missing key or a lost race reports false with no error.
	CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error)
	// Scan returns all keys matching a glob pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
}
