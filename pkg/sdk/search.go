package campusnav

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/campusnav/internal/domain/geo"
	"github.com/kailas-cloud/campusnav/internal/domain/search/request"
)

// SearchBuilder is a fluent builder for building searches.
// With a query, hits are ranked by match score; with only a location, by
// distance; otherwise the filtered buildings come back in store order.
type SearchBuilder struct {
	svc searchUseCase
	obs *observer

	query      string
	near       *geo.Point
	category   string
	department string
	limit      int
}

// Query sets the search text.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.query = q
	return b
}

// Near sets the user position used for distances.
func (b *SearchBuilder) Near(lat, lng float64) *SearchBuilder {
	b.near = &geo.Point{Latitude: lat, Longitude: lng}
	return b
}

// Category keeps only buildings with exactly this category.
func (b *SearchBuilder) Category(c string) *SearchBuilder {
	b.category = c
	return b
}

// Department keeps only buildings with exactly this department.
func (b *SearchBuilder) Department(d string) *SearchBuilder {
	b.department = d
	return b
}

// Limit sets the maximum number of hits (1-50, default 10).
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// Do runs the search.
func (b *SearchBuilder) Do(ctx context.Context) (_ []SearchHit, err error) {
	start := time.Now()
	req, err := request.New(b.query, b.near, b.limit, b.category, b.department)
	if err != nil {
		b.obs.observe("search", start, err)
		return nil, err
	}
	defer func() { b.obs.observe("search", start, err, "mode", string(req.Mode())) }()

	results, err := b.svc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	b.obs.observeResults(len(results))

	hits := make([]SearchHit, len(results))
	for i := range results {
		hits[i] = hitFromResult(&results[i])
	}
	return hits, nil
}
