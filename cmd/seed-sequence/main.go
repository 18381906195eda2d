// Command seed-sequence validates the built-in step catalog and writes it to
// the sequence_steps table. Run it once per environment, or again after
// changing the default sequence.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/repository"
	"followup_backend/platform/config"
	"followup_backend/platform/db"
	"followup_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	steps := domain.DefaultSteps()
	if _, err := domain.NewCatalog(steps); err != nil {
		log.Error("default sequence failed integrity validation", "error", err)
		panic("default sequence failed integrity validation: " + err.Error())
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	repo := repository.New(pool)
	if err := repo.UpsertSequenceSteps(ctx, steps); err != nil {
		log.Error("failed to seed sequence steps", "error", err)
		panic("failed to seed sequence steps: " + err.Error())
	}

	log.Info("sequence steps seeded", "steps", len(steps))
}
