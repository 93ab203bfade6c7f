package mode

// Mode names the ranking branch a request takes.
type Mode string

// Search mode constants.
const (
	// Nearest sorts the whole pool by distance: no query, no filters, a location.
	Nearest Mode = "nearest"
	// Default returns the pool in store order: no query, no filters, no location.
	Default Mode = "default"
	// Filter applies category/department filters without a query.
	Filter Mode = "filter"
	// Scored ranks candidates by fuzzy match score against the query.
	Scored Mode = "scored"
)
