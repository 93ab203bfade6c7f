package campusnav

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/seed"
)

// SeedMode selects how Seed treats existing buildings.
type SeedMode string

// Seed mode constants.
const (
	// SeedReplace deletes every stored building first.
	SeedReplace SeedMode = SeedMode(seed.ModeReplace)
	// SeedMissing only adds buildings whose id is not stored yet.
	SeedMissing SeedMode = SeedMode(seed.ModeMissing)
)

// SeedReport summarizes a seeding run.
type SeedReport struct {
	Removed int
	Created int
	Skipped int
	Failed  int
	Errors  []error
}

// Seed loads the bundled campus dataset.
func (c *Client) Seed(ctx context.Context, mode SeedMode) (SeedReport, error) {
	dataset, err := seed.Default()
	if err != nil {
		return SeedReport{}, fmt.Errorf("load dataset: %w", err)
	}
	return c.seed(ctx, dataset, mode)
}

// SeedFrom loads a YAML dataset in the bundled format from r.
func (c *Client) SeedFrom(ctx context.Context, r io.Reader, mode SeedMode) (SeedReport, error) {
	dataset, err := seed.Load(r)
	if err != nil {
		return SeedReport{}, fmt.Errorf("load dataset: %w", err)
	}
	return c.seed(ctx, dataset, mode)
}

func (c *Client) seed(ctx context.Context, dataset []dombuilding.Attributes, mode SeedMode) (_ SeedReport, err error) {
	start := time.Now()
	var rep seed.Report
	defer func() {
		c.obs.observe("seed", start, err,
			"mode", string(mode), "created", rep.Created, "skipped", rep.Skipped, "failed", rep.Failed)
	}()

	m, err := seed.ParseMode(string(mode))
	if err != nil {
		return SeedReport{}, err
	}
	rep, err = seed.New(c.backend, c.seedWorkers, zap.NewNop(), nil).Run(ctx, dataset, m)
	if err != nil {
		return SeedReport{}, fmt.Errorf("seed: %w", err)
	}
	return SeedReport{
		Removed: rep.Removed,
		Created: rep.Created,
		Skipped: rep.Skipped,
		Failed:  rep.Failed,
		Errors:  rep.Errors,
	}, nil
}
