package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/campusnav/internal/domain"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/logger"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxBytes        = 10 << 20
	DefaultMaxDimension    = 1600
	DefaultThumbnailWidth  = 320
	DefaultThumbnailHeight = 240
	DefaultJPEGQuality     = 85
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Config bounds uploads and sizes the variants.
type Config struct {
	MaxBytes        int64
	MaxDimension    int
	ThumbnailWidth  int
	ThumbnailHeight int
	JPEGQuality     int
}

func (c Config) withDefaults() Config {
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.MaxDimension <= 0 {
		c.MaxDimension = DefaultMaxDimension
	}
	if c.ThumbnailWidth <= 0 {
		c.ThumbnailWidth = DefaultThumbnailWidth
	}
	if c.ThumbnailHeight <= 0 {
		c.ThumbnailHeight = DefaultThumbnailHeight
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	return c
}

// Remover deletes every stored image of a building.
type Remover struct {
	storage Storage
}

// NewRemover wraps storage; a nil storage makes removal a no-op.
func NewRemover(storage Storage) *Remover {
	return &Remover{storage: storage}
}

// RemoveBuildingImages drops the building's key prefix.
func (r *Remover) RemoveBuildingImages(ctx context.Context, buildingID string) error {
	if r.storage == nil {
		return nil
	}
	if err := r.storage.DeletePrefix(ctx, keyPrefix(buildingID)); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}

// Service processes building image uploads.
type Service struct {
	*Remover
	buildings BuildingStore
	observer  Observer
	cfg       Config
}

// New creates an image service. storage nil disables uploads; observer may be nil.
func New(buildings BuildingStore, storage Storage, observer Observer, cfg Config) *Service {
	return &Service{
		Remover:   NewRemover(storage),
		buildings: buildings,
		observer:  observer,
		cfg:       cfg.withDefaults(),
	}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 { return s.cfg.MaxBytes }

// Upload validates and decodes the file, writes a fitted main image and a
// filled thumbnail, replaces the building's previous images and records the URLs.
func (s *Service) Upload(ctx context.Context, ref, filename string, r io.Reader) (dombuilding.Building, error) {
	b, err := s.upload(ctx, ref, filename, r)
	if s.observer != nil {
		s.observer.ObserveUpload(err)
	}
	return b, err
}

func (s *Service) upload(ctx context.Context, ref, filename string, r io.Reader) (dombuilding.Building, error) {
	if s.storage == nil {
		return dombuilding.Building{}, domain.ErrImageStorageDisabled
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return dombuilding.Building{}, fmt.Errorf("%w: unsupported extension %q", domain.ErrInvalidImage, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBytes+1))
	if err != nil {
		return dombuilding.Building{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return dombuilding.Building{}, domain.ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return dombuilding.Building{}, fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}

	b, err := s.buildings.Get(ctx, ref)
	if err != nil {
		return dombuilding.Building{}, err
	}

	base := keyPrefix(b.ID()) + uuid.NewString()
	mainKey, thumbKey := base+".jpg", base+"_thumb.jpg"

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fitted := imaging.Fit(img, s.cfg.MaxDimension, s.cfg.MaxDimension, imaging.Lanczos)
		return s.writeJPEG(gctx, mainKey, fitted)
	})
	g.Go(func() error {
		thumb := imaging.Fill(img, s.cfg.ThumbnailWidth, s.cfg.ThumbnailHeight, imaging.Center, imaging.Lanczos)
		return s.writeJPEG(gctx, thumbKey, thumb)
	})
	if err := g.Wait(); err != nil {
		s.discard(ctx, base)
		return dombuilding.Building{}, err
	}

	updated, err := s.buildings.SetImages(ctx, b.ID(), s.storage.URL(mainKey), s.storage.URL(thumbKey))
	if err != nil {
		s.discard(ctx, base)
		return dombuilding.Building{}, err
	}

	// The record already points at the new variants; a failure here only leaks files.
	if prev := uploadBase(b.ImageURL(), b.ID()); prev != "" && prev != base {
		s.discard(ctx, prev)
	}

	logger.FromContext(ctx).Info("building image stored",
		zap.String("id", b.ID()),
		zap.String("key", mainKey),
		zap.Int("bytes", len(data)),
	)
	return updated, nil
}

func (s *Service) discard(ctx context.Context, base string) {
	if err := s.storage.DeletePrefix(context.WithoutCancel(ctx), base); err != nil {
		logger.FromContext(ctx).Warn("image cleanup failed",
			zap.String("prefix", base),
			zap.Error(err),
		)
	}
}

// uploadBase recovers the "buildings/<id>/<uuid>" key stem from a stored image URL.
func uploadBase(imageURL, buildingID string) string {
	i := strings.LastIndex(imageURL, keyPrefix(buildingID))
	if i < 0 {
		return ""
	}
	stem, ok := strings.CutSuffix(imageURL[i:], ".jpg")
	if !ok || stem == keyPrefix(buildingID) {
		return ""
	}
	return stem
}

// Delete removes the building's images and clears both URLs.
func (s *Service) Delete(ctx context.Context, ref string) (dombuilding.Building, error) {
	if s.storage == nil {
		return dombuilding.Building{}, domain.ErrImageStorageDisabled
	}
	b, err := s.buildings.Get(ctx, ref)
	if err != nil {
		return dombuilding.Building{}, err
	}
	if err := s.RemoveBuildingImages(ctx, b.ID()); err != nil {
		return dombuilding.Building{}, err
	}
	return s.buildings.SetImages(ctx, b.ID(), "", "")
}

func (s *Service) writeJPEG(ctx context.Context, key string, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.cfg.JPEGQuality)); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.storage.Write(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg"); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func keyPrefix(buildingID string) string {
	return "buildings/" + buildingID + "/"
}
