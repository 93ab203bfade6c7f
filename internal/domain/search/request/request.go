package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/campusnav/internal/domain"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
	"github.com/kailas-cloud/campusnav/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength = 256
	DefaultLimit   = 10
	MaxLimit       = 50
)

// Request is a validated search query.
type Request struct {
	query      string
	location   *geo.Point
	limit      int
	category   string
	department string
}

// New validates and normalizes search parameters. Every rejection wraps
// domain.ErrInvalidRequest.
// Text inputs are trimmed; a whitespace-only query counts as no query.
// limit=0 means DefaultLimit; anything outside 1..MaxLimit is rejected.
func New(query string, location *geo.Point, limit int, category, department string) (Request, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, MaxLimit)
	}
	if location != nil {
		if err := location.Validate(); err != nil {
			return Request{}, fmt.Errorf("%w: location: %w", domain.ErrInvalidRequest, err)
		}
		loc := *location
		location = &loc
	}
	return Request{
		query:      query,
		location:   location,
		limit:      limit,
		category:   strings.TrimSpace(category),
		department: strings.TrimSpace(department),
	}, nil
}

// Query returns the trimmed search text ("" when absent).
func (r *Request) Query() string { return r.query }

// Location returns the user position, nil when absent.
func (r *Request) Location() *geo.Point { return r.location }

// Limit returns the maximum number of results.
func (r *Request) Limit() int { return r.limit }

// Category returns the exact-match category filter ("" when absent).
func (r *Request) Category() string { return r.category }

// Department returns the exact-match department filter ("" when absent).
func (r *Request) Department() string { return r.department }

// HasFilters reports whether a category or department filter is set.
func (r *Request) HasFilters() bool { return r.category != "" || r.department != "" }

// Mode returns the ranking branch this request takes.
func (r *Request) Mode() mode.Mode {
	switch {
	case r.query != "":
		return mode.Scored
	case r.HasFilters():
		return mode.Filter
	case r.location != nil:
		return mode.Nearest
	default:
		return mode.Default
	}
}
