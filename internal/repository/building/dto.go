package building

import (
	"encoding/json"
	"fmt"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

// record is the stored JSON shape of a building.
type record struct {
	ID           string                    `json:"id"`
	Slug         string                    `json:"slug"`
	Name         string                    `json:"name"`
	ShortName    string                    `json:"short_name,omitempty"`
	Description  string                    `json:"description,omitempty"`
	Coordinates  geo.Point                 `json:"primary_coordinates"`
	Category     string                    `json:"category,omitempty"`
	Department   string                    `json:"department,omitempty"`
	Keywords     []string                  `json:"keywords,omitempty"`
	Facilities   []string                  `json:"facilities,omitempty"`
	Entrances    []dombuilding.Entrance    `json:"entrances,omitempty"`
	Floors       []dombuilding.Floor       `json:"floors,omitempty"`
	OpeningHours *dombuilding.OpeningHours `json:"opening_hours,omitempty"`
	ImageURL     string                    `json:"image_url,omitempty"`
	ThumbnailURL string                    `json:"thumbnail_url,omitempty"`
	Metadata     map[string]any            `json:"metadata,omitempty"`
	Revision     int                       `json:"revision"`
	CreatedAt    int64                     `json:"created_at"`
	UpdatedAt    int64                     `json:"updated_at"`
}

// Encode serializes a building into its stored JSON form.
func Encode(b *dombuilding.Building) ([]byte, error) {
	a := b.Attributes()
	data, err := json.Marshal(record{
		ID: a.ID, Slug: a.Slug, Name: a.Name, ShortName: a.ShortName,
		Description: a.Description, Coordinates: a.Coordinates,
		Category: a.Category, Department: a.Department,
		Keywords: a.Keywords, Facilities: a.Facilities,
		Entrances: a.Entrances, Floors: a.Floors, OpeningHours: a.OpeningHours,
		ImageURL: a.ImageURL, ThumbnailURL: a.ThumbnailURL, Metadata: a.Metadata,
		Revision: b.Revision(), CreatedAt: b.CreatedAt(), UpdatedAt: b.UpdatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal building %s: %w", a.ID, err)
	}
	return data, nil
}

// Decode hydrates a building from its stored JSON form.
func Decode(data []byte) (dombuilding.Building, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return dombuilding.Building{}, fmt.Errorf("unmarshal building: %w", err)
	}
	return dombuilding.Reconstruct(dombuilding.Attributes{
		ID: r.ID, Slug: r.Slug, Name: r.Name, ShortName: r.ShortName,
		Description: r.Description, Coordinates: r.Coordinates,
		Category: r.Category, Department: r.Department,
		Keywords: r.Keywords, Facilities: r.Facilities,
		Entrances: r.Entrances, Floors: r.Floors, OpeningHours: r.OpeningHours,
		ImageURL: r.ImageURL, ThumbnailURL: r.ThumbnailURL, Metadata: r.Metadata,
	}, r.Revision, r.CreatedAt, r.UpdatedAt), nil
}
