package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/config"
	"profile-extract-go/pkg/models"
)

func fastConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Processor.MinStageDelayMS = 0
	cfg.Processor.MaxStageDelayMS = 0
	cfg.Processor.SuccessProbability = 1
	cfg.Processor.Seed = 7
	cfg.Batch.MaxConcurrent = 2
	cfg.Batch.InteractiveMaxItems = 4
	return cfg
}

func TestRunDefaultsAndLimits(t *testing.T) {
	cfg := fastConfig()
	cfg.Batch.RateLimit = 5
	cfg.Batch.PerItemTimeoutMS = 1500

	opts := RunDefaults(cfg)
	assert.Equal(t, 2, opts.MaxConcurrent)
	assert.Equal(t, 1500*time.Millisecond, opts.PerItemTimeout)
	assert.Equal(t, 5.0, opts.RateLimit)

	limits := LimitsFrom(cfg)
	assert.Equal(t, 4, limits.For(models.ModeInteractive))
	assert.Equal(t, 1000, limits.For(models.ModeBulk))
}

func TestNewFromConfig_Simulated(t *testing.T) {
	svc, err := NewFromConfig(fastConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	snap, err := svc.Create(models.ModeInteractive, []string{
		"https://www.linkedin.com/in/someone",
		"https://github.com/someone",
	})
	require.NoError(t, err)

	_, err = svc.Start(snap.ID, RunOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := svc.Wait(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.Categories[models.CategoryLinkedIn])
}

func TestNewProcessor_RejectsInvalidProbability(t *testing.T) {
	cfg := fastConfig()
	cfg.Processor.SuccessProbability = 2

	_, err := NewProcessor(cfg, zerolog.Nop())
	assert.Error(t, err)
}
