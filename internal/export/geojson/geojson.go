// Package geojson renders buildings as a GeoJSON FeatureCollection.
package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
)

// FeatureCollection converts buildings into Point features (lon, lat order)
// keyed by building id. The collection bbox is omitted when empty.
func FeatureCollection(buildings []dombuilding.Building) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(buildings))}
	if len(buildings) == 0 {
		return fc
	}

	bounds := geom.NewBounds(geom.XY)
	for i := range buildings {
		b := &buildings[i]
		c := b.Coordinates()
		pt := geom.NewPointFlat(geom.XY, []float64{c.Longitude, c.Latitude})
		bounds.Extend(pt)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         b.ID(),
			Geometry:   pt,
			Properties: properties(b),
		})
	}
	fc.BBox = bounds
	return fc
}

// Encode marshals the FeatureCollection for buildings.
func Encode(buildings []dombuilding.Building) ([]byte, error) {
	data, err := json.Marshal(FeatureCollection(buildings))
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

func properties(b *dombuilding.Building) map[string]any {
	p := map[string]any{
		"name": b.Name(),
		"slug": b.Slug(),
	}
	for k, v := range map[string]string{
		"short_name":    b.ShortName(),
		"category":      b.Category(),
		"department":    b.Department(),
		"thumbnail_url": b.ThumbnailURL(),
	} {
		if v != "" {
			p[k] = v
		}
	}
	return p
}
