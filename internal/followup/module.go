// Package followup provides the follow-up engine bounded context module.
// This file defines the module that encapsulates all engine setup and route
// registration.
package followup

import (
	"context"

	"followup_backend/internal/delivery"
	"followup_backend/internal/events"
	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/handler"
	"followup_backend/internal/followup/ranking"
	"followup_backend/internal/followup/repository"
	"followup_backend/internal/followup/scheduling"
	"followup_backend/internal/followup/turbo"
	apphttp "followup_backend/internal/http"
	"followup_backend/internal/leads"
	"followup_backend/platform/clock"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"
	"followup_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the follow-up bounded context implementing http.Module.
type Module struct {
	handler    *handler.Handler
	scheduler  *scheduling.Service
	ranking    *ranking.Service
	runner     *turbo.Runner
	catalog    *domain.Catalog
	repository *repository.Repository
}

// NewModule loads the step catalog from storage and wires the engine. A
// catalog that fails integrity validation aborts startup.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg *config.Config, clk clock.Clock, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	catalog, err := loadCatalog(repo)
	if err != nil {
		return nil, err
	}

	scheduler := scheduling.New(repo, catalog, eventBus, clk, log)
	rankingSvc := ranking.New(repo, catalog, cfg, clk, log)
	runner := turbo.New(scheduler, clk, cfg.GetTurboAutoAdvanceWindow(), log)

	gate := delivery.NewGate(
		delivery.NewWhatsAppClient(cfg, log),
		delivery.NewMailer(cfg, log),
		cfg.PhoneDefaultRegion,
	)
	leadReader := leads.New(pool)

	h := handler.New(scheduler, rankingSvc, runner, catalog, gate, leadReader, val)

	return &Module{
		handler:    h,
		scheduler:  scheduler,
		ranking:    rankingSvc,
		runner:     runner,
		catalog:    catalog,
		repository: repo,
	}, nil
}

// loadCatalog reads the seeded steps; a not-yet-seeded database falls back to
// the built-in sequence so a fresh deployment can serve immediately.
func loadCatalog(repo *repository.Repository) (*domain.Catalog, error) {
	steps, err := repo.ListSequenceSteps(context.Background())
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		steps = domain.DefaultSteps()
	}
	return domain.NewCatalog(steps)
}

// Name returns the module identifier.
func (m *Module) Name() string { return "followup" }

// RegisterRoutes mounts the follow-up and turbo routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/followups"))
	m.handler.RegisterTurboRoutes(ctx.V1.Group("/turbo"))
}

// Scheduler exposes the transition service for worker processes.
func (m *Module) Scheduler() *scheduling.Service { return m.scheduler }

// Repository exposes the store for the dispatcher's due scans.
func (m *Module) Repository() *repository.Repository { return m.repository }
