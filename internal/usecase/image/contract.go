package image

import (
	"context"
	"io"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
)

// BuildingStore resolves buildings and records their image URLs.
type BuildingStore interface {
	Get(ctx context.Context, ref string) (dombuilding.Building, error)
	SetImages(ctx context.Context, ref, imageURL, thumbnailURL string) (dombuilding.Building, error)
}

// Storage persists encoded image variants.
type Storage interface {
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	DeletePrefix(ctx context.Context, prefix string) error
	URL(key string) string
}

// Observer receives upload outcomes.
type Observer interface {
	ObserveUpload(err error)
}
