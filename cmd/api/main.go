package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"profile-extract-go/pkg/api"
	"profile-extract-go/pkg/config"
	"profile-extract-go/pkg/logger"
	"profile-extract-go/pkg/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	l, err := logger.New(logger.Options{Level: cfg.CLI.LogLevel, Console: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Close()
	log := l.Component("api")

	if l.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	service, err := services.NewFromConfig(cfg, l.Component("batch"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create batch service")
	}

	router := api.NewRouter(service, cfg, l.Component("http"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("scraper_mode", cfg.Scraper.Mode).
			Bool("auth", cfg.API.APIKey != "").
			Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	// running batches stop dispatching; in-flight items get the rest of ctx
	if err := service.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("batches did not settle before shutdown deadline")
	}

	log.Info().Msg("server exited")
}
