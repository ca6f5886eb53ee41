package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/projecthub/internal/app"
	"github.com/geocoder89/projecthub/internal/config"
	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := observability.NewLogger("projecthub-api", cfg.Env)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()

	shutdownTracer, err := observability.InitTracer(startCtx, "projecthub-api", cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	a, err := app.New(startCtx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Migrator != nil {
		if err := a.Migrator.Up(); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	// the memory backend starts empty, so give it the demo dataset
	if cfg.StoreBackend == "memory" {
		if err := a.Seeder.Bootstrap(startCtx); err != nil {
			log.Error("bootstrap failed", "err", err)
			os.Exit(1)
		}
	}

	if err := a.Seeder.EnsureModerator(startCtx, a.Moderator()); err != nil {
		log.Warn("moderator not provisioned", "err", err)
	}

	var shuttingDown atomic.Bool

	router := a.Router(shuttingDown.Load)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env,
			"store", cfg.StoreBackend, "sessions", cfg.SessionBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	shuttingDown.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
