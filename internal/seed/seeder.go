package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/domain"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
)

// Mode selects how existing records are treated.
type Mode string

const (
	// ModeReplace wipes every stored building before loading.
	ModeReplace Mode = "replace"
	// ModeMissing only creates buildings whose id is not stored yet.
	ModeMissing Mode = "missing"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeReplace, ModeMissing:
		return m, nil
	default:
		return "", fmt.Errorf("unknown seed mode %q", s)
	}
}

// DefaultWorkers bounds concurrent writes.
const DefaultWorkers = 8

// Repository is the write side the seeder needs.
type Repository interface {
	Create(ctx context.Context, b *dombuilding.Building) error
	DeleteAll(ctx context.Context) (int, error)
}

// Observer receives seeding totals.
type Observer interface {
	ObserveSeed(created, skipped, failed int)
}

// Report summarizes a run.
type Report struct {
	Removed int
	Created int
	Skipped int
	Failed  int
	Errors  []error
}

// Seeder writes a dataset through a bounded worker pool.
type Seeder struct {
	repo     Repository
	workers  int
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// New creates a seeder. workers <= 0 uses DefaultWorkers; observer may be nil.
func New(repo Repository, workers int, logger *zap.Logger, observer Observer) *Seeder {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{repo: repo, workers: workers, logger: logger, observer: observer, now: time.Now}
}

// Run stores buildings according to mode. Per-building failures are collected
// in the report; only setup errors abort the run.
// Creation times are spaced one millisecond apart so store order follows the dataset.
func (s *Seeder) Run(ctx context.Context, buildings []dombuilding.Attributes, mode Mode) (Report, error) {
	var rep Report
	if _, err := ParseMode(string(mode)); err != nil {
		return rep, err
	}

	if mode == ModeReplace {
		n, err := s.repo.DeleteAll(ctx)
		if err != nil {
			return rep, fmt.Errorf("delete buildings: %w", err)
		}
		rep.Removed = n
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return rep, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	tally := func(created, skipped bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			rep.Failed++
			rep.Errors = append(rep.Errors, err)
		case skipped:
			rep.Skipped++
		case created:
			rep.Created++
		}
	}

	base := s.now().UnixMilli()
	for i := range buildings {
		a := buildings[i]
		ts := base + int64(i)
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			tally(s.createOne(ctx, a, ts))
		}); err != nil {
			wg.Done()
			tally(false, false, fmt.Errorf("submit %s: %w", a.ID, err))
		}
	}
	wg.Wait()

	if s.observer != nil {
		s.observer.ObserveSeed(rep.Created, rep.Skipped, rep.Failed)
	}
	s.logger.Info("seed finished",
		zap.String("mode", string(mode)),
		zap.Int("removed", rep.Removed),
		zap.Int("created", rep.Created),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}

func (s *Seeder) createOne(ctx context.Context, a dombuilding.Attributes, ts int64) (created, skipped bool, err error) {
	b, err := dombuilding.New(a)
	if err != nil {
		return false, false, fmt.Errorf("building %s: %w", a.ID, err)
	}
	b = b.WithTimestamps(1, ts, ts)

	if err := s.repo.Create(ctx, &b); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return false, true, nil
		}
		s.logger.Warn("seed building failed", zap.String("id", a.ID), zap.Error(err))
		return false, false, fmt.Errorf("create %s: %w", a.ID, err)
	}
	return true, false, nil
}
