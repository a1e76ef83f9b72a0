package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/scraper"
	"profile-extract-go/pkg/validation"
)

const (
	DefaultSuccessProbability = 0.9
	DefaultConfidenceMin      = 0.6
	DefaultConfidenceMax      = 1.0
	DefaultMinStageDelay      = 500 * time.Millisecond
	DefaultMaxStageDelay      = 2 * time.Second
	DefaultRetryBackoff       = 200 * time.Millisecond
)

// Config controls how a single item is driven through the stages.
type Config struct {
	Tracker            *scraper.Tracker
	Runner             scraper.Runner
	SuccessProbability float64
	ConfidenceMin      float64
	ConfidenceMax      float64
	Rand               Rand
	MaxRetries         int
	RetryBackoff       time.Duration
	Clock              func() time.Time
	Logger             zerolog.Logger
}

// DefaultConfig returns a config with simulated stages and the default
// success probability and confidence range.
func DefaultConfig() Config {
	rng := NewRand(0)
	return Config{
		Tracker: scraper.DefaultTracker(),
		Runner: &scraper.SimulatedRunner{
			MinDelay: DefaultMinStageDelay,
			MaxDelay: DefaultMaxStageDelay,
			Rand:     rng,
		},
		SuccessProbability: DefaultSuccessProbability,
		ConfidenceMin:      DefaultConfidenceMin,
		ConfidenceMax:      DefaultConfidenceMax,
		Rand:               rng,
		RetryBackoff:       DefaultRetryBackoff,
		Logger:             zerolog.Nop(),
	}
}

// Validate checks probability and range settings.
func (c Config) Validate() error {
	if c.SuccessProbability < 0 || c.SuccessProbability > 1 {
		return fmt.Errorf("success probability %v outside [0,1]", c.SuccessProbability)
	}
	if c.ConfidenceMin < 0 || c.ConfidenceMax > 1 || c.ConfidenceMin > c.ConfidenceMax {
		return fmt.Errorf("invalid confidence range [%v, %v]", c.ConfidenceMin, c.ConfidenceMax)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	return nil
}

// Update is emitted after every stage transition and once at completion.
// Step follows the Tracker convention: 0 before any stage, TerminalStep when
// every stage is done. A failed item keeps the step it failed at.
type Update struct {
	Item    models.Item
	Step    int
	Stage   scraper.ScrapeStage
	Attempt int
}

// ProgressFunc receives updates for one item. It is called synchronously
// from the processing goroutine.
type ProgressFunc func(Update)

// Processor drives items from pending to a terminal status.
type Processor struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tracker == nil {
		cfg.Tracker = scraper.DefaultTracker()
	}
	if cfg.Rand == nil {
		cfg.Rand = NewRand(0)
	}
	if cfg.Runner == nil {
		cfg.Runner = &scraper.SimulatedRunner{
			MinDelay: DefaultMinStageDelay,
			MaxDelay: DefaultMaxStageDelay,
			Rand:     cfg.Rand,
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Processor{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "processor").Logger(),
	}, nil
}

// Tracker returns the stage tracker items are driven through.
func (p *Processor) Tracker() *scraper.Tracker {
	return p.cfg.Tracker
}

// Process validates item, runs every stage and draws the outcome. The input
// item is copied; failures are recorded on the returned item, never returned
// as errors.
func (p *Processor) Process(ctx context.Context, item models.Item, onUpdate ProgressFunc) models.ProcessedItem {
	item = item.Clone()
	start := p.cfg.Clock()
	emit := func(step int, stage scraper.ScrapeStage, attempt int) {
		if onUpdate != nil {
			onUpdate(Update{Item: item.Clone(), Step: step, Stage: stage, Attempt: attempt})
		}
	}
	finish := func(step, attempts int) models.ProcessedItem {
		now := p.cfg.Clock()
		item.FinishedAt = &now
		emit(step, scraper.StageComplete, attempts)
		return models.ProcessedItem{
			Item:       item.Clone(),
			Attempts:   attempts,
			DurationMS: now.Sub(start).Milliseconds(),
		}
	}

	res := validation.Validate(item.Input)
	if !res.Valid {
		item.Status = models.ItemFailed
		item.Reason = res.Reason
		item.Error = res.Message
		p.log.Debug().
			Str("item_id", item.ID.String()).
			Str("reason", string(res.Reason)).
			Msg("item rejected by validation")
		return finish(0, 0)
	}
	item.SourceCategory = res.Category
	item.Warnings = res.Warnings
	item.Status = models.ItemProcessing
	item.StartedAt = &start

	attempts := 1
	for _, stage := range p.cfg.Tracker.Stages() {
		emit(stage.Index, stage.Name, attempts)
		used, err := p.runStage(ctx, item, stage)
		attempts += used - 1
		if err != nil {
			p.fail(ctx, &item, stage, err)
			return finish(stage.Index, attempts)
		}
	}
	if ctx.Err() != nil {
		p.fail(ctx, &item, scraper.Stage{Name: scraper.StageComplete}, ctx.Err())
		return finish(p.cfg.Tracker.Len(), attempts)
	}

	if p.cfg.Rand.Float64() < p.cfg.SuccessProbability {
		confidence := p.cfg.ConfidenceMin + p.cfg.Rand.Float64()*(p.cfg.ConfidenceMax-p.cfg.ConfidenceMin)
		profile := mockProfile(p.cfg.Rand, item, p.cfg.Clock())
		item.Status = models.ItemCompleted
		item.Confidence = &confidence
		item.Result = &profile
	} else {
		item.Status = models.ItemFailed
		item.Reason = models.KindSimulatedFailure
		item.Error = models.KindSimulatedFailure.Message()
	}

	p.log.Debug().
		Str("item_id", item.ID.String()).
		Str("status", string(item.Status)).
		Int("attempts", attempts).
		Msg("item processed")
	return finish(p.cfg.Tracker.TerminalStep(), attempts)
}

// runStage runs one stage, retrying retryable errors with exponential
// backoff. It returns how many times the runner was invoked.
func (p *Processor) runStage(ctx context.Context, item models.Item, stage scraper.Stage) (int, error) {
	backoff := p.cfg.RetryBackoff
	for attempt := 1; ; attempt++ {
		err := p.cfg.Runner.Run(ctx, item, stage)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil || attempt > p.cfg.MaxRetries || !scraper.IsRetryable(err) {
			return attempt, err
		}

		p.log.Debug().
			Err(err).
			Str("item_id", item.ID.String()).
			Str("stage", string(stage.Name)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("retrying stage")

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
	}
}

func (p *Processor) fail(ctx context.Context, item *models.Item, stage scraper.Stage, err error) {
	item.Status = models.ItemFailed
	item.Reason = KindFor(ctx, err)
	switch item.Reason {
	case models.KindStageFailed:
		item.Error = scraper.UserMessage(err)
	default:
		item.Error = item.Reason.Message()
	}

	p.log.Debug().
		Err(err).
		Str("item_id", item.ID.String()).
		Str("stage", string(stage.Name)).
		Str("reason", string(item.Reason)).
		Msg("stage failed")
}

// KindFor maps a processing error to the reason recorded on the item. An
// expired item context wins over whatever the runner returned.
func KindFor(ctx context.Context, err error) models.ErrorKind {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.KindTimeout
	case ctx.Err() != nil:
		return models.KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return models.KindTimeout
	case errors.Is(err, context.Canceled):
		return models.KindCancelled
	default:
		return models.KindStageFailed
	}
}
