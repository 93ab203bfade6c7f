package search

import (
	"context"
	"time"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/search/request"
	"github.com/kailas-cloud/campusnav/internal/domain/search/result"
)

// BuildingLister loads the full candidate pool. Called once per search; no pushdown.
type BuildingLister interface {
	List(ctx context.Context) ([]dombuilding.Building, error)
}

// Ranker orders a candidate pool against a request.
type Ranker interface {
	Rank(pool []dombuilding.Building, req *request.Request) ([]result.Result, error)
}

// Observer receives one callback per search call.
type Observer interface {
	ObserveSearch(mode string, pool, results int, elapsed time.Duration, err error)
}
