package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vcissuer/internal/platform/config"
	"vcissuer/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

// main wires dependencies, starts the issuance engine and the outbox relay,
// and keeps the HTTP lifecycle small. Domain logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	log.Info("initializing vcissuer",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"participant_context_id", cfg.Issuer.ParticipantContextID,
		"persistence", persistenceMode(cfg),
		"statuslist_publisher", cfg.StatusList.Publisher,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	app.start()
	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	app.stop(shutdownCtx)

	log.Info("server stopped")
}

func persistenceMode(cfg config.Config) string {
	if cfg.Database.URL == "" {
		return "memory"
	}
	return "postgres"
}
