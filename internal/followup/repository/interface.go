package repository

import (
	"context"
	"time"

	"followup_backend/internal/followup/domain"

	"github.com/google/uuid"
)

// Consumer-driven interfaces. Services declare only the slice of the
// repository they actually use, which keeps tests on small in-memory fakes.

// StatusStore is the mutation surface of the status store. Only the
// scheduling service holds it.
type StatusStore interface {
	GetByLeadID(ctx context.Context, leadID uuid.UUID) (FollowUpStatus, error)
	Create(ctx context.Context, params CreateParams) (FollowUpStatus, error)
	ApplyTransition(ctx context.Context, params TransitionParams) (FollowUpStatus, error)
	SetPreferredChannel(ctx context.Context, leadID uuid.UUID, channel *domain.Channel) error
}

// HistoryReader exposes the ledger for timelines.
type HistoryReader interface {
	ListHistory(ctx context.Context, leadID uuid.UUID) ([]HistoryEntry, error)
	CountHistory(ctx context.Context, leadID uuid.UUID) (int, error)
}

// CandidateReader exposes the due-candidate query for ranking and dispatch.
type CandidateReader interface {
	ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit int) ([]Candidate, error)
}

// StepSource loads the seeded sequence step templates.
type StepSource interface {
	ListSequenceSteps(ctx context.Context) ([]domain.Step, error)
}
