package ranking

import (
	"context"
	"time"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/repository"
	"followup_backend/platform/clock"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"
)

// candidateFetchFactor oversamples the due query so that truncation happens
// after scoring, not inside SQL ordering.
const candidateFetchFactor = 5

// Service produces the prioritized action list from the live status store.
type Service struct {
	repo    repository.CandidateReader
	catalog *domain.Catalog
	weights Weights
	clock   clock.Clock
	log     *logger.Logger
}

// New creates a ranking service with weights taken from configuration.
func New(repo repository.CandidateReader, catalog *domain.Catalog, cfg config.RankingConfig, clk clock.Clock, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		weights: weightsFromConfig(cfg),
		clock:   clk,
		log:     log,
	}
}

func weightsFromConfig(cfg config.RankingConfig) Weights {
	return Weights{
		BaseScore:     cfg.GetRankingBaseScore(),
		DueTodayScore: cfg.GetRankingDueTodayScore(),
		OverdueBase:   cfg.GetRankingOverdueBase(),
		OverduePerDay: cfg.GetRankingOverduePerDay(),
		OverdueCap:    cfg.GetRankingOverdueCap(),
		UpcomingFloor: cfg.GetRankingUpcomingFloor(),
		FollowUpBonus: cfg.GetRankingFollowUpBonus(),
		DefaultLimit:  cfg.GetRankingDefaultLimit(),
	}
}

// NextActions returns the top follow-up actions for the sales dashboard,
// including touches that come due within the lookahead window.
func (s *Service) NextActions(ctx context.Context, limit int, lookahead time.Duration) ([]Action, error) {
	if limit <= 0 {
		limit = s.weights.DefaultLimit
	}

	now := s.clock.Now()
	candidates, err := s.repo.ListDue(ctx, now, lookahead, limit*candidateFetchFactor)
	if err != nil {
		return nil, err
	}

	actions := Rank(candidates, s.catalog, now, limit, s.weights)
	s.log.Debug("ranked follow-up actions", "candidates", len(candidates), "returned", len(actions))
	return actions, nil
}
