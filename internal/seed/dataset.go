// Package seed loads the campus building dataset and writes it to a store.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
)

//go:embed buildings.yaml
var defaultDataset []byte

type coordinates struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

type record struct {
	ID           string                    `yaml:"id"`
	Slug         string                    `yaml:"slug"`
	Name         string                    `yaml:"name"`
	ShortName    string                    `yaml:"short_name"`
	Category     string                    `yaml:"category"`
	Department   string                    `yaml:"department"`
	Description  string                    `yaml:"description"`
	Facilities   []string                  `yaml:"facilities"`
	Keywords     []string                  `yaml:"keywords"`
	Coordinates  coordinates               `yaml:"coordinates"`
	Entrances    []dombuilding.Entrance    `yaml:"entrances"`
	Floors       []dombuilding.Floor       `yaml:"floors"`
	OpeningHours *dombuilding.OpeningHours `yaml:"opening_hours"`
	Metadata     map[string]any            `yaml:"metadata"`
}

type dataset struct {
	Buildings []record `yaml:"buildings"`
}

// Default returns the embedded campus dataset.
func Default() ([]dombuilding.Attributes, error) {
	return Load(bytes.NewReader(defaultDataset))
}

// LoadFile reads a dataset file. An empty path means the embedded dataset.
func LoadFile(path string) ([]dombuilding.Attributes, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load parses a YAML dataset and validates every entry.
// Duplicate ids are rejected.
func Load(r io.Reader) ([]dombuilding.Attributes, error) {
	var ds dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	out := make([]dombuilding.Attributes, 0, len(ds.Buildings))
	seen := make(map[string]struct{}, len(ds.Buildings))
	for i := range ds.Buildings {
		a := ds.Buildings[i].attributes()
		if _, err := dombuilding.New(a); err != nil {
			return nil, fmt.Errorf("building %d (%s): %w", i, a.ID, err)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("building %d: duplicate id %q", i, a.ID)
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

func (r *record) attributes() dombuilding.Attributes {
	return dombuilding.Attributes{
		ID:           r.ID,
		Slug:         r.Slug,
		Name:         r.Name,
		ShortName:    r.ShortName,
		Description:  r.Description,
		Coordinates:  geo.Point{Latitude: r.Coordinates.Lat, Longitude: r.Coordinates.Lng},
		Category:     r.Category,
		Department:   r.Department,
		Keywords:     r.Keywords,
		Facilities:   r.Facilities,
		Entrances:    r.Entrances,
		Floors:       r.Floors,
		OpeningHours: r.OpeningHours,
		Metadata:     r.Metadata,
	}
}
