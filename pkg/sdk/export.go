package campusnav

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/campusnav/internal/export/geojson"
)

// ExportGeoJSON writes every building as a GeoJSON FeatureCollection of points.
func (c *Client) ExportGeoJSON(ctx context.Context, w io.Writer) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("export_geojson", start, err) }()

	all, err := c.buildingSvc.List(ctx)
	if err != nil {
		return fmt.Errorf("list buildings: %w", err)
	}
	data, err := geojson.Encode(all)
	if err != nil {
		return err
	}
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
