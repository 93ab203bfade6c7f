package patch

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

// Fields lists the attributes a patch may touch.
// A nil pointer leaves the attribute unchanged; a pointer to "" clears an optional string.
// A nil value in Metadata deletes that key.
type Fields struct {
	Slug         *string
	Name         *string
	ShortName    *string
	Description  *string
	Coordinates  *geo.Point
	Category     *string
	Department   *string
	Keywords     *[]string
	Facilities   *[]string
	Entrances    *[]building.Entrance
	Floors       *[]building.Floor
	OpeningHours **building.OpeningHours
	Metadata     map[string]any
}

// Patch is a partial building update.
type Patch struct {
	f Fields
}

// New validates and creates a Patch. At least one field must be provided.
func New(f Fields) (Patch, error) {
	if f.Slug == nil && f.Name == nil && f.ShortName == nil && f.Description == nil &&
		f.Coordinates == nil && f.Category == nil && f.Department == nil &&
		f.Keywords == nil && f.Facilities == nil && f.Entrances == nil &&
		f.Floors == nil && f.OpeningHours == nil && len(f.Metadata) == 0 {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	if f.Name != nil && *f.Name == "" {
		return Patch{}, fmt.Errorf("name cannot be cleared")
	}
	if f.Slug != nil && *f.Slug == "" {
		return Patch{}, fmt.Errorf("slug cannot be cleared")
	}
	return Patch{f: f}, nil
}

// Fields returns the raw field updates.
func (p Patch) Fields() Fields { return p.f }

// Apply merges the patch into b and re-validates the result.
// Revision and timestamps are carried over; the caller bumps them on save.
func (p Patch) Apply(b building.Building) (building.Building, error) {
	a := b.Attributes()
	f := p.f
	setString(&a.Slug, f.Slug)
	setString(&a.Name, f.Name)
	setString(&a.ShortName, f.ShortName)
	setString(&a.Description, f.Description)
	setString(&a.Category, f.Category)
	setString(&a.Department, f.Department)
	if f.Coordinates != nil {
		a.Coordinates = *f.Coordinates
	}
	if f.Keywords != nil {
		a.Keywords = slices.Clone(*f.Keywords)
	}
	if f.Facilities != nil {
		a.Facilities = slices.Clone(*f.Facilities)
	}
	if f.Entrances != nil {
		a.Entrances = slices.Clone(*f.Entrances)
	}
	if f.Floors != nil {
		a.Floors = slices.Clone(*f.Floors)
	}
	if f.OpeningHours != nil {
		a.OpeningHours = *f.OpeningHours
	}
	if len(f.Metadata) > 0 {
		if a.Metadata == nil {
			a.Metadata = make(map[string]any, len(f.Metadata))
		}
		for k, v := range f.Metadata {
			if v == nil {
				delete(a.Metadata, k)
				continue
			}
			a.Metadata[k] = v
		}
	}
	// A renamed building without an explicit slug keeps its old slug.
	merged, err := building.New(a)
	if err != nil {
		return building.Building{}, err
	}
	return merged.WithTimestamps(b.Revision(), b.CreatedAt(), b.UpdatedAt()), nil
}

// MetadataKeys returns the metadata keys touched by the patch, sorted.
func (p Patch) MetadataKeys() []string {
	return slices.Sorted(maps.Keys(p.f.Metadata))
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
