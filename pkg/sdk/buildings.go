package campusnav

import (
	"context"
	"fmt"
	"time"
)

// BuildingService manages building records.
type BuildingService struct {
	svc buildingUseCase
	obs *observer
}

// Create stores a new building. An empty ID is generated; an empty Slug is
// derived from the name.
func (s *BuildingService) Create(ctx context.Context, b Building) (_ Building, err error) {
	start := time.Now()
	defer func() { s.obs.observe("building_create", start, err, "id", b.ID) }()

	created, err := s.svc.Create(ctx, toAttributes(&b))
	if err != nil {
		return Building{}, fmt.Errorf("create building: %w", err)
	}
	return fromDomain(&created), nil
}

// Get returns a building by slug or id.
func (s *BuildingService) Get(ctx context.Context, ref string) (_ Building, err error) {
	start := time.Now()
	defer func() { s.obs.observe("building_get", start, err, "ref", ref) }()

	b, err := s.svc.Get(ctx, ref)
	if err != nil {
		return Building{}, fmt.Errorf("get building %s: %w", ref, err)
	}
	return fromDomain(&b), nil
}

// List returns every building in creation order.
func (s *BuildingService) List(ctx context.Context) (_ []Building, err error) {
	start := time.Now()
	defer func() { s.obs.observe("building_list", start, err) }()

	all, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	out := make([]Building, len(all))
	for i := range all {
		out[i] = fromDomain(&all[i])
	}
	return out, nil
}

// Delete removes a building by slug or id.
func (s *BuildingService) Delete(ctx context.Context, ref string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("building_delete", start, err, "ref", ref) }()

	if err = s.svc.Delete(ctx, ref); err != nil {
		return fmt.Errorf("delete building %s: %w", ref, err)
	}
	return nil
}
