package building

import (
	"context"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
)

// Repository defines the storage contract for buildings.
type Repository interface {
	Create(ctx context.Context, b *dombuilding.Building) error
	Get(ctx context.Context, id string) (dombuilding.Building, error)
	GetBySlug(ctx context.Context, slug string) (dombuilding.Building, error)
	List(ctx context.Context) ([]dombuilding.Building, error)
	// Update replaces prev with b, failing with a domain.RevisionConflictError
	// when the stored revision no longer matches prev.
	Update(ctx context.Context, b, prev *dombuilding.Building) error
	Delete(ctx context.Context, id string) error
}

// ImageRemover drops every stored image of a building.
type ImageRemover interface {
	RemoveBuildingImages(ctx context.Context, buildingID string) error
}
