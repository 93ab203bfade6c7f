package building

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/domain"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/building/patch"
	"github.com/kailas-cloud/campusnav/internal/logger"
)

// Service handles building CRUD with optimistic revisions.
type Service struct {
	repo            Repository
	images          ImageRemover
	now             func() time.Time
	newID           func() string
	defaultPageSize int
	maxPageSize     int
}

// New creates a building service. images may be nil.
func New(repo Repository, images ImageRemover) *Service {
	return &Service{
		repo:            repo,
		images:          images,
		now:             time.Now,
		newID:           uuid.NewString,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// MaxPageSize returns the largest page Page will return.
func (s *Service) MaxPageSize() int { return s.maxPageSize }

// WithClock overrides the time source (tests, deterministic seeding).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates and stores a new building. An empty ID gets a generated UUID.
func (s *Service) Create(ctx context.Context, attrs dombuilding.Attributes) (dombuilding.Building, error) {
	if attrs.ID == "" {
		attrs.ID = s.newID()
	}
	b, err := dombuilding.New(attrs)
	if err != nil {
		return dombuilding.Building{}, fmt.Errorf("%w: %w", domain.ErrInvalidBuilding, err)
	}
	ts := s.now().UnixMilli()
	b = b.WithTimestamps(1, ts, ts)

	if err := s.repo.Create(ctx, &b); err != nil {
		return dombuilding.Building{}, fmt.Errorf("create building: %w", err)
	}
	return b, nil
}

// Get resolves ref as a slug first, then as an ID.
func (s *Service) Get(ctx context.Context, ref string) (dombuilding.Building, error) {
	b, err := s.repo.GetBySlug(ctx, ref)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrBuildingNotFound) {
		return dombuilding.Building{}, fmt.Errorf("get building by slug: %w", err)
	}
	b, err = s.repo.Get(ctx, ref)
	if err != nil {
		return dombuilding.Building{}, fmt.Errorf("get building: %w", err)
	}
	return b, nil
}

// List returns every building in store order.
func (s *Service) List(ctx context.Context) ([]dombuilding.Building, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return all, nil
}

// Page returns up to limit buildings after the one with ID cursor.
// The returned cursor is empty on the last page.
func (s *Service) Page(ctx context.Context, cursor string, limit int) ([]dombuilding.Building, string, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	limit = min(limit, s.maxPageSize)

	all, err := s.List(ctx)
	if err != nil {
		return nil, "", err
	}

	start := 0
	if cursor != "" {
		start = len(all)
		for i := range all {
			if all[i].ID() == cursor {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(all))
	page := all[start:end]

	next := ""
	if end < len(all) && len(page) > 0 {
		next = page[len(page)-1].ID()
	}
	return page, next, nil
}

// Replace overwrites all attributes of a building. ID, creation time and image
// URLs are kept, as is the slug when none is given.
// ifMatch > 0 enforces the current revision.
func (s *Service) Replace(
	ctx context.Context, ref string, attrs dombuilding.Attributes, ifMatch int,
) (dombuilding.Building, error) {
	cur, err := s.Get(ctx, ref)
	if err != nil {
		return dombuilding.Building{}, err
	}
	if err := checkRevision(&cur, ifMatch); err != nil {
		return dombuilding.Building{}, err
	}

	attrs.ID = cur.ID()
	attrs.Slug = cmp.Or(attrs.Slug, cur.Slug())
	attrs.ImageURL = cmp.Or(attrs.ImageURL, cur.ImageURL())
	attrs.ThumbnailURL = cmp.Or(attrs.ThumbnailURL, cur.ThumbnailURL())
	next, err := dombuilding.New(attrs)
	if err != nil {
		return dombuilding.Building{}, fmt.Errorf("%w: %w", domain.ErrInvalidBuilding, err)
	}
	return s.save(ctx, &cur, next)
}

// Patch applies a partial update. ifMatch > 0 enforces the current revision.
func (s *Service) Patch(ctx context.Context, ref string, p patch.Patch, ifMatch int) (dombuilding.Building, error) {
	cur, err := s.Get(ctx, ref)
	if err != nil {
		return dombuilding.Building{}, err
	}
	if err := checkRevision(&cur, ifMatch); err != nil {
		return dombuilding.Building{}, err
	}

	next, err := p.Apply(cur)
	if err != nil {
		return dombuilding.Building{}, fmt.Errorf("%w: %w", domain.ErrInvalidBuilding, err)
	}
	logger.FromContext(ctx).Debug("patch building",
		zap.String("id", cur.ID()),
		zap.Strings("metadata_keys", p.MetadataKeys()),
	)
	return s.save(ctx, &cur, next)
}

// SetImages records new image URLs on a building and bumps its revision.
func (s *Service) SetImages(ctx context.Context, ref, imageURL, thumbnailURL string) (dombuilding.Building, error) {
	cur, err := s.Get(ctx, ref)
	if err != nil {
		return dombuilding.Building{}, err
	}
	return s.save(ctx, &cur, cur.WithImages(imageURL, thumbnailURL))
}

// Delete removes a building and, best effort, its images.
func (s *Service) Delete(ctx context.Context, ref string) error {
	cur, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cur.ID()); err != nil {
		return fmt.Errorf("delete building: %w", err)
	}
	if s.images != nil {
		if err := s.images.RemoveBuildingImages(ctx, cur.ID()); err != nil {
			logger.FromContext(ctx).Warn("remove building images",
				zap.String("id", cur.ID()), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) save(ctx context.Context, cur *dombuilding.Building, next dombuilding.Building) (dombuilding.Building, error) {
	next = next.WithTimestamps(cur.Revision()+1, cur.CreatedAt(), s.now().UnixMilli())
	if err := s.repo.Update(ctx, &next, cur); err != nil {
		return dombuilding.Building{}, fmt.Errorf("update building: %w", err)
	}
	return next, nil
}

func checkRevision(cur *dombuilding.Building, ifMatch int) error {
	if ifMatch > 0 && ifMatch != cur.Revision() {
		return domain.NewRevisionConflict(cur.Revision())
	}
	return nil
}
