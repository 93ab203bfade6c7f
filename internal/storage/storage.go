// Package storage persists building images on the local filesystem or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// Storage is an object store addressed by slash-separated keys.
type Storage interface {
	// Write stores content under key. size < 0 means unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// URL returns the public URL of key.
	URL(key string) string
	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error
}
