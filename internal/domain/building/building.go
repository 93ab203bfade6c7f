package building

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

var (
	idRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Field limits.
const (
	MaxIDLength          = 128
	MaxSlugLength        = 128
	MaxNameLength        = 200
	MaxDescriptionLength = 4096
	MaxKeywords          = 64
)

// Entrance is a building access point.
type Entrance struct {
	Name        string    `json:"name" yaml:"name"`
	Coordinates geo.Point `json:"coordinates" yaml:"coordinates"`
	Accessible  bool      `json:"accessible" yaml:"accessible"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Floor describes one level of a building.
type Floor struct {
	Number                 string   `json:"floor_number" yaml:"floor_number"`
	Facilities             []string `json:"facilities,omitempty" yaml:"facilities,omitempty"`
	HasElevator            bool     `json:"has_elevator" yaml:"has_elevator"`
	HasRestrooms           bool     `json:"has_restrooms" yaml:"has_restrooms"`
	HasAccessibleRestrooms bool     `json:"has_accessible_restrooms" yaml:"has_accessible_restrooms"`
	MapImageURL            string   `json:"map_image_url,omitempty" yaml:"map_image_url,omitempty"`
}

// OpeningHours holds free-form opening times per weekday.
type OpeningHours struct {
	Monday         string `json:"monday,omitempty" yaml:"monday,omitempty"`
	Tuesday        string `json:"tuesday,omitempty" yaml:"tuesday,omitempty"`
	Wednesday      string `json:"wednesday,omitempty" yaml:"wednesday,omitempty"`
	Thursday       string `json:"thursday,omitempty" yaml:"thursday,omitempty"`
	Friday         string `json:"friday,omitempty" yaml:"friday,omitempty"`
	Saturday       string `json:"saturday,omitempty" yaml:"saturday,omitempty"`
	Sunday         string `json:"sunday,omitempty" yaml:"sunday,omitempty"`
	Holidays       string `json:"holidays,omitempty" yaml:"holidays,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty" yaml:"additional_info,omitempty"`
}

// Attributes is the mutable payload of a building record.
// Empty strings mean "absent" for optional fields.
type Attributes struct {
	ID           string
	Slug         string
	Name         string
	ShortName    string
	Description  string
	Coordinates  geo.Point
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
}

// Building is the building aggregate (immutable value object).
type Building struct {
	attrs     Attributes
	revision  int
	createdAt int64
	updatedAt int64
}

// New validates and creates a Building at revision 1.
// ID must be set by the caller; the slug is derived from the name when empty.
func New(a Attributes) (Building, error) {
	a = normalize(a)
	if a.Slug == "" {
		a.Slug = Slugify(a.Name)
	}
	if err := validate(a); err != nil {
		return Building{}, err
	}
	return Building{attrs: cloneAttributes(a), revision: 1}, nil
}

// Reconstruct creates a Building without validation (storage hydration).
func Reconstruct(a Attributes, revision int, createdAt, updatedAt int64) Building {
	return Building{attrs: a, revision: revision, createdAt: createdAt, updatedAt: updatedAt}
}

// ID returns the building identifier.
func (b *Building) ID() string { return b.attrs.ID }

// Slug returns the URL key.
func (b *Building) Slug() string { return b.attrs.Slug }

// Name returns the display name.
func (b *Building) Name() string { return b.attrs.Name }

// ShortName returns the abbreviation ("" when absent).
func (b *Building) ShortName() string { return b.attrs.ShortName }

// Description returns the free text description.
func (b *Building) Description() string { return b.attrs.Description }

// Coordinates returns the primary location.
func (b *Building) Coordinates() geo.Point { return b.attrs.Coordinates }

// Category returns the category label.
func (b *Building) Category() string { return b.attrs.Category }

// Department returns the owning department.
func (b *Building) Department() string { return b.attrs.Department }

// Keywords returns the search keywords.
func (b *Building) Keywords() []string { return b.attrs.Keywords }

// Facilities returns the building-wide facilities.
func (b *Building) Facilities() []string { return b.attrs.Facilities }

// Entrances returns the access points.
func (b *Building) Entrances() []Entrance { return b.attrs.Entrances }

// Floors returns the floor descriptions.
func (b *Building) Floors() []Floor { return b.attrs.Floors }

// OpeningHours returns the opening times, nil if unknown.
func (b *Building) OpeningHours() *OpeningHours { return b.attrs.OpeningHours }

// ImageURL returns the main image location.
func (b *Building) ImageURL() string { return b.attrs.ImageURL }

// ThumbnailURL returns the thumbnail location.
func (b *Building) ThumbnailURL() string { return b.attrs.ThumbnailURL }

// Metadata returns free-form metadata.
func (b *Building) Metadata() map[string]any { return b.attrs.Metadata }

// Revision returns the revision number.
func (b *Building) Revision() int { return b.revision }

// CreatedAt returns the creation time in unix milliseconds.
func (b *Building) CreatedAt() int64 { return b.createdAt }

// UpdatedAt returns the last update time in unix milliseconds.
func (b *Building) UpdatedAt() int64 { return b.updatedAt }

// Attributes returns a deep copy of the payload.
func (b *Building) Attributes() Attributes { return cloneAttributes(b.attrs) }

// Validate re-checks the invariants of a hydrated building.
func (b *Building) Validate() error { return validate(b.attrs) }

// WithTimestamps returns a copy carrying the given revision and times.
func (b *Building) WithTimestamps(revision int, createdAt, updatedAt int64) Building {
	return Building{attrs: b.attrs, revision: revision, createdAt: createdAt, updatedAt: updatedAt}
}

// WithImages returns a copy with both image URLs replaced.
func (b *Building) WithImages(imageURL, thumbnailURL string) Building {
	a := cloneAttributes(b.attrs)
	a.ImageURL = imageURL
	a.ThumbnailURL = thumbnailURL
	return Building{attrs: a, revision: b.revision, createdAt: b.createdAt, updatedAt: b.updatedAt}
}

func validate(a Attributes) error {
	if a.ID == "" {
		return fmt.Errorf("building ID is required")
	}
	if len(a.ID) > MaxIDLength {
		return fmt.Errorf("building ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(a.ID) {
		return fmt.Errorf("building ID must be alphanumeric with underscores and hyphens")
	}
	if a.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(a.Slug) > MaxSlugLength || !slugRegex.MatchString(a.Slug) {
		return fmt.Errorf("invalid slug %q", a.Slug)
	}
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(a.Name) > MaxNameLength {
		return fmt.Errorf("name too long (max %d chars)", MaxNameLength)
	}
	if utf8.RuneCountInString(a.Description) > MaxDescriptionLength {
		return fmt.Errorf("description too long (max %d chars)", MaxDescriptionLength)
	}
	if err := a.Coordinates.Validate(); err != nil {
		return err
	}
	if len(a.Keywords) > MaxKeywords {
		return fmt.Errorf("too many keywords (max %d)", MaxKeywords)
	}
	for i, e := range a.Entrances {
		if err := e.Coordinates.Validate(); err != nil {
			return fmt.Errorf("entrance %d: %w", i, err)
		}
	}
	for i, f := range a.Floors {
		if f.Number == "" {
			return fmt.Errorf("floor %d: floor number is required", i)
		}
	}
	return nil
}

func normalize(a Attributes) Attributes {
	a.ID = strings.TrimSpace(a.ID)
	a.Slug = strings.TrimSpace(a.Slug)
	a.Name = strings.TrimSpace(a.Name)
	a.ShortName = strings.TrimSpace(a.ShortName)
	a.Description = strings.TrimSpace(a.Description)
	a.Category = strings.TrimSpace(a.Category)
	a.Department = strings.TrimSpace(a.Department)
	a.Keywords = compact(a.Keywords)
	a.Facilities = compact(a.Facilities)
	return a
}

// compact trims entries and drops empties, keeping order.
func compact(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cloneAttributes(a Attributes) Attributes {
	c := a
	c.Keywords = slices.Clone(a.Keywords)
	c.Facilities = slices.Clone(a.Facilities)
	c.Entrances = slices.Clone(a.Entrances)
	if a.Floors != nil {
		c.Floors = make([]Floor, len(a.Floors))
		for i, f := range a.Floors {
			f.Facilities = slices.Clone(f.Facilities)
			c.Floors[i] = f
		}
	}
	if a.OpeningHours != nil {
		oh := *a.OpeningHours
		c.OpeningHours = &oh
	}
	c.Metadata = maps.Clone(a.Metadata)
	return c
}
