package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"followup_backend/internal/dispatch"
	"followup_backend/internal/events"
	"followup_backend/internal/followup/repository"
	"followup_backend/platform/clock"
	"followup_backend/platform/config"
	"followup_backend/platform/db"
	"followup_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting dispatcher", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	repo := repository.New(pool)

	client, err := dispatch.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize dispatch client", "error", err)
		panic("failed to initialize dispatch client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	scanner := dispatch.NewScanner(repo, client, cfg, clock.New(), log)
	go scanner.Run(ctx)

	worker, err := dispatch.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize dispatch worker", "error", err)
		panic("failed to initialize dispatch worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("dispatcher stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
