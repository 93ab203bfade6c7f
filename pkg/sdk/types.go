package campusnav

import (
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
	"github.com/kailas-cloud/campusnav/internal/domain/search/result"
)

// Nested building records, shared with the server's JSON shape.
type (
	Entrance     = dombuilding.Entrance
	Floor        = dombuilding.Floor
	OpeningHours = dombuilding.OpeningHours
)

// Location is a WGS84 position in decimal degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Building is a campus building record.
// Revision and timestamps are set by the store and ignored on Create.
type Building struct {
	ID           string
	Slug         string
	Name         string
	ShortName    string
	Description  string
	Location     Location
	Category     string
	Department   string
	Keywords     []string
	Facilities   []string
	Entrances    []Entrance
	Floors       []Floor
	OpeningHours *OpeningHours
	ImageURL     string
	ThumbnailURL string
	Metadata     map[string]any

	Revision  int
	CreatedAt int64 // unix millis
	UpdatedAt int64 // unix millis
}

// SearchHit is one ranked building.
// DistanceKm is set only when the search had a location; Score only in scored mode.
type SearchHit struct {
	ID           string
	Slug         string
	Name         string
	ShortName    string
	Category     string
	Department   string
	Location     Location
	ThumbnailURL string
	DistanceKm   *float64
	Score        *float64
}

func toAttributes(b *Building) dombuilding.Attributes {
	return dombuilding.Attributes{
		ID:           b.ID,
		Slug:         b.Slug,
		Name:         b.Name,
		ShortName:    b.ShortName,
		Description:  b.Description,
		Coordinates:  geo.Point{Latitude: b.Location.Latitude, Longitude: b.Location.Longitude},
		Category:     b.Category,
		Department:   b.Department,
		Keywords:     b.Keywords,
		Facilities:   b.Facilities,
		Entrances:    b.Entrances,
		Floors:       b.Floors,
		OpeningHours: b.OpeningHours,
		ImageURL:     b.ImageURL,
		ThumbnailURL: b.ThumbnailURL,
		Metadata:     b.Metadata,
	}
}

func fromDomain(b *dombuilding.Building) Building {
	a := b.Attributes()
	return Building{
		ID:           a.ID,
		Slug:         a.Slug,
		Name:         a.Name,
		ShortName:    a.ShortName,
		Description:  a.Description,
		Location:     Location{Latitude: a.Coordinates.Latitude, Longitude: a.Coordinates.Longitude},
		Category:     a.Category,
		Department:   a.Department,
		Keywords:     a.Keywords,
		Facilities:   a.Facilities,
		Entrances:    a.Entrances,
		Floors:       a.Floors,
		OpeningHours: a.OpeningHours,
		ImageURL:     a.ImageURL,
		ThumbnailURL: a.ThumbnailURL,
		Metadata:     a.Metadata,
		Revision:     b.Revision(),
		CreatedAt:    b.CreatedAt(),
		UpdatedAt:    b.UpdatedAt(),
	}
}

func hitFromResult(r *result.Result) SearchHit {
	c := r.Coordinates()
	return SearchHit{
		ID:           r.ID(),
		Slug:         r.Slug(),
		Name:         r.Name(),
		ShortName:    r.ShortName(),
		Category:     r.Category(),
		Department:   r.Department(),
		Location:     Location{Latitude: c.Latitude, Longitude: c.Longitude},
		ThumbnailURL: r.ThumbnailURL(),
		DistanceKm:   r.DistanceKm(),
		Score:        r.Score(),
	}
}
