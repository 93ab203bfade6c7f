package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/domain/search/ranking"
	"github.com/kailas-cloud/campusnav/internal/domain/search/request"
	"github.com/kailas-cloud/campusnav/internal/domain/search/result"
	"github.com/kailas-cloud/campusnav/internal/logger"
)

// Service runs building searches against a fresh store snapshot.
type Service struct {
	buildings BuildingLister
	ranker    Ranker
	observer  Observer
}

// New creates a search service. A nil ranker uses the default ranking engine;
// observer may be nil.
func New(buildings BuildingLister, ranker Ranker, observer Observer) *Service {
	if ranker == nil {
		ranker = ranking.New(nil)
	}
	return &Service{buildings: buildings, ranker: ranker, observer: observer}
}

// Search loads every building and ranks them against req.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	start := time.Now()
	m := string(req.Mode())

	pool, err := s.buildings.List(ctx)
	if err != nil {
		err = fmt.Errorf("list buildings: %w", err)
		s.observe(m, 0, 0, start, err)
		return nil, err
	}

	results, err := s.ranker.Rank(pool, req)
	if err != nil {
		err = fmt.Errorf("rank buildings: %w", err)
		s.observe(m, len(pool), 0, start, err)
		return nil, err
	}

	s.observe(m, len(pool), len(results), start, nil)
	logger.FromContext(ctx).Debug("search",
		zap.String("mode", m),
		zap.Int("pool", len(pool)),
		zap.Int("results", len(results)),
		zap.Duration("took", time.Since(start)),
	)
	return results, nil
}

func (s *Service) observe(m string, pool, results int, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveSearch(m, pool, results, time.Since(start), err)
	}
}
