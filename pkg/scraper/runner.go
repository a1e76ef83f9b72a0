package scraper

import (
	"context"
	"time"

	"profile-extract-go/pkg/models"
)

// Runner performs a single stage of work for an item. Implementations must
// return promptly once ctx is done.
type Runner interface {
	Run(ctx context.Context, item models.Item, stage Stage) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, item models.Item, stage Stage) error

func (f RunnerFunc) Run(ctx context.Context, item models.Item, stage Stage) error {
	return f(ctx, item, stage)
}

// Float64Source yields values in [0, 1).
type Float64Source interface {
	Float64() float64
}

// SimulatedRunner sleeps a random duration in [MinDelay, MaxDelay] per stage.
type SimulatedRunner struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Rand     Float64Source
}

func (r *SimulatedRunner) Run(ctx context.Context, _ models.Item, _ Stage) error {
	delay := r.MinDelay
	if r.MaxDelay > r.MinDelay && r.Rand != nil {
		delay += time.Duration(r.Rand.Float64() * float64(r.MaxDelay-r.MinDelay))
	}
	if delay <= 0 {
		if ctx.Err() != nil {
			return contextError(ctx)
		}
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return contextError(ctx)
	case <-timer.C:
		return nil
	}
}

// RemoteRunner fetches pages through a ScraperService during the fetching
// stage and hands every other stage to Fallback.
type RemoteRunner struct {
	Service        *ScraperService
	TimeoutSeconds int
	Fallback       Runner
}

func (r *RemoteRunner) Run(ctx context.Context, item models.Item, stage Stage) error {
	if stage.Name != StageFetching {
		if r.Fallback == nil {
			return nil
		}
		return r.Fallback.Run(ctx, item, stage)
	}
	_, err := r.Service.Scrape(ctx, item.Input, r.TimeoutSeconds)
	return err
}
