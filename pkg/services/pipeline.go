package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/config"
	"profile-extract-go/pkg/processor"
	"profile-extract-go/pkg/scraper"
)

// NewProcessor builds an item processor from cfg. In remote scraper mode the
// fetching stage goes through the scraper service and the remaining stages
// keep the simulated delays.
func NewProcessor(cfg *config.Config, log zerolog.Logger) (*processor.Processor, error) {
	rng := processor.NewRand(cfg.Processor.Seed)
	minDelay, maxDelay := cfg.StageDelays()

	var runner scraper.Runner = &scraper.SimulatedRunner{
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		Rand:     rng,
	}
	if cfg.Scraper.Mode == config.ScraperRemote {
		timeout := time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second
		runner = &scraper.RemoteRunner{
			Service:        scraper.NewScraperService(cfg.Scraper.BaseURL, timeout),
			TimeoutSeconds: cfg.Scraper.TimeoutSeconds,
			Fallback:       runner,
		}
	}

	proc, err := processor.New(processor.Config{
		Tracker:            scraper.DefaultTracker(),
		Runner:             runner,
		SuccessProbability: cfg.Processor.SuccessProbability,
		ConfidenceMin:      cfg.Processor.ConfidenceMin,
		ConfidenceMax:      cfg.Processor.ConfidenceMax,
		Rand:               rng,
		MaxRetries:         cfg.Batch.MaxRetries,
		RetryBackoff:       cfg.RetryBackoff(),
		Logger:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}
	return proc, nil
}

// RunDefaults returns the coordinator options configured in cfg.
func RunDefaults(cfg *config.Config) batch.Options {
	return batch.Options{
		MaxConcurrent:  cfg.Batch.MaxConcurrent,
		PerItemTimeout: cfg.PerItemTimeout(),
		RateLimit:      cfg.Batch.RateLimit,
		RateBurst:      cfg.Batch.RateBurst,
	}
}

// LimitsFrom returns the per-mode item bounds configured in cfg.
func LimitsFrom(cfg *config.Config) Limits {
	return Limits{
		Interactive: cfg.Batch.InteractiveMaxItems,
		Bulk:        cfg.Batch.BulkMaxItems,
	}
}

// NewFromConfig wires processor, coordinator and service.
func NewFromConfig(cfg *config.Config, log zerolog.Logger) (*BatchService, error) {
	proc, err := NewProcessor(cfg, log)
	if err != nil {
		return nil, err
	}
	coord := batch.NewCoordinator(proc, log)
	return NewBatchService(coord, RunDefaults(cfg), LimitsFrom(cfg), log), nil
}
