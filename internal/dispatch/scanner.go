package dispatch

import (
	"context"
	"time"

	"followup_backend/internal/followup/repository"
	"followup_backend/platform/clock"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// enqueueParallelism bounds concurrent enqueues per scan tick.
const enqueueParallelism = 8

// DueEnqueuer is the slice of the task client the scanner needs.
type DueEnqueuer interface {
	EnqueueFollowUpDue(ctx context.Context, payload FollowUpDuePayload) error
}

// Scanner periodically queries the status store for due touches and enqueues
// one task per candidate. Task IDs make rescans idempotent, so overlapping
// windows are safe.
type Scanner struct {
	repo      repository.CandidateReader
	client    DueEnqueuer
	clock     clock.Clock
	interval  time.Duration
	lookahead time.Duration
	batchSize int
	log       *logger.Logger
}

func NewScanner(repo repository.CandidateReader, client DueEnqueuer, cfg config.DispatchConfig, clk clock.Clock, log *logger.Logger) *Scanner {
	return &Scanner{
		repo:      repo,
		client:    client,
		clock:     clk,
		interval:  cfg.GetDueScanInterval(),
		lookahead: cfg.GetDueScanLookahead(),
		batchSize: cfg.GetDueScanBatchSize(),
		log:       log,
	}
}

// Run blocks until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.scanOnce(ctx); err != nil {
			s.log.Warn("due scan failed", "error", err.Error())
		}
	}
}

func (s *Scanner) scanOnce(ctx context.Context) error {
	now := s.clock.Now()
	candidates, err := s.repo.ListDue(ctx, now, s.lookahead, s.batchSize)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enqueueParallelism)
	for _, c := range candidates {
		if c.NextFollowUpAt == nil {
			continue
		}
		payload := FollowUpDuePayload{
			LeadID:   c.LeadID.String(),
			StepCode: c.CurrentStepCode,
			DueAt:    *c.NextFollowUpAt,
		}
		g.Go(func() error {
			return s.client.EnqueueFollowUpDue(gctx, payload)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.log.Debug("due scan enqueued", "candidates", len(candidates))
	return nil
}
