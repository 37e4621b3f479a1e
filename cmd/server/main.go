package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bibliocra/internal/config"
	"bibliocra/internal/infra"
	"bibliocra/internal/repository"
	"bibliocra/internal/router"
	"bibliocra/internal/service"
	"bibliocra/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sweep cadence for expired reservations and overdue notices.
const vencimientoCronInterval = 15 * time.Minute

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Start goroutine worker pool for async tasks (email notices).
	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	workerHandlers := &worker.WorkerHandlers{
		Aviso: worker.NewAvisoWorker(mailer),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	// Periodic sweep: expire stale reservations, enqueue overdue notices
	prestamoRepo := repository.NewPrestamoRepository(db)
	reservaRepo := repository.NewReservaRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)
	itemRepo := repository.NewItemRepository(db)
	reservaSvc := service.NewReservaService(reservaRepo, prestamoRepo, usuarioRepo, itemRepo, cfg.ReservaVigenciaHoras)
	worker.StartVencimientoCron(ctx, rdb, dispatcher, prestamoRepo, itemRepo, reservaSvc, vencimientoCronInterval)

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("BiblioCRA backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
