package result

import (
	"github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

// Result is a single search hit: a trimmed view of a building.
type Result struct {
	id           string
	slug         string
	name         string
	shortName    string
	description  string
	coordinates  geo.Point
	category     string
	department   string
	thumbnailURL string
	distanceKm   *float64
	score        *float64
}

// New creates a search result from a building.
// distanceKm is nil when the request carried no location; score is nil outside the scored branch.
func New(b *building.Building, distanceKm, score *float64) Result {
	return Result{
		id:           b.ID(),
		slug:         b.Slug(),
		name:         b.Name(),
		shortName:    b.ShortName(),
		description:  b.Description(),
		coordinates:  b.Coordinates(),
		category:     b.Category(),
		department:   b.Department(),
		thumbnailURL: b.ThumbnailURL(),
		distanceKm:   distanceKm,
		score:        score,
	}
}

// ID returns the building identifier.
func (r *Result) ID() string { return r.id }

// Slug returns the building URL key.
func (r *Result) Slug() string { return r.slug }

// Name returns the display name.
func (r *Result) Name() string { return r.name }

// ShortName returns the abbreviation ("" when absent).
func (r *Result) ShortName() string { return r.shortName }

// Description returns the description ("" when absent).
func (r *Result) Description() string { return r.description }

// Coordinates returns the primary location.
func (r *Result) Coordinates() geo.Point { return r.coordinates }

// Category returns the category label.
func (r *Result) Category() string { return r.category }

// Department returns the owning department.
func (r *Result) Department() string { return r.department }

// ThumbnailURL returns the thumbnail location.
func (r *Result) ThumbnailURL() string { return r.thumbnailURL }

// DistanceKm returns the geodesic distance from the request location, nil without one.
func (r *Result) DistanceKm() *float64 { return r.distanceKm }

// Score returns the match score (0-100), nil when the query branch was not taken.
func (r *Result) Score() *float64 { return r.score }
