// Package scheduling owns every transition of a lead's follow-up status: it
// is the only writer of the status store and the only appender to the history
// ledger. All scheduling math runs on an injected clock.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/repository"
	"followup_backend/platform/apperr"
	"followup_backend/platform/clock"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the scheduling
// service. This is a consumer-driven interface - only what scheduling needs.
type Repository interface {
	repository.StatusStore
	repository.HistoryReader
}

// Service handles all follow-up lifecycle transitions.
type Service struct {
	repo    Repository
	catalog *domain.Catalog
	bus     events.Bus
	clock   clock.Clock
	log     *logger.Logger
}

// New creates a new scheduling service.
func New(repo Repository, catalog *domain.Catalog, bus events.Bus, clk clock.Clock, log *logger.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, bus: bus, clock: clk, log: log}
}

// RecordOutcomeParams carries the caller-supplied facts of one executed step.
type RecordOutcomeParams struct {
	Outcome          domain.Outcome
	Channel          *domain.Channel
	ExecutedAt       time.Time // zero value means "now"
	MessageSent      *string
	ResponseReceived *string
	// TerminalOverride lets a caller close a reply outcome straight to
	// converted instead of the default replied.
	TerminalOverride *domain.Status
}

// RecordOutcome applies the outcome policy to a lead's status record and
// appends exactly one history entry. The read-apply-write cycle is guarded by
// an optimistic version check with one bounded retry; a second conflict
// surfaces as ConcurrentModification.
func (s *Service) RecordOutcome(ctx context.Context, leadID uuid.UUID, params RecordOutcomeParams) (repository.FollowUpStatus, error) {
	if !params.Outcome.Known() {
		return repository.FollowUpStatus{}, apperr.Validation(fmt.Sprintf("unknown outcome %q", params.Outcome))
	}
	if params.Channel != nil && !params.Channel.Known() {
		return repository.FollowUpStatus{}, apperr.Validation(fmt.Sprintf("unknown channel %q", *params.Channel))
	}
	if params.TerminalOverride != nil && !domain.TerminalOverride(*params.TerminalOverride) {
		return repository.FollowUpStatus{}, apperr.Validation("terminal override must be converted")
	}

	executedAt := params.ExecutedAt
	if executedAt.IsZero() {
		executedAt = s.clock.Now()
	}

	var applied repository.FollowUpStatus
	var executedStep string
	err := s.withConflictRetry(func() error {
		st, err := s.repo.GetByLeadID(ctx, leadID)
		if err != nil {
			return mapStoreErr(err)
		}

		transition, err := s.buildOutcomeTransition(st, params, executedAt)
		if err != nil {
			return err
		}
		executedStep = transition.History.StepCode

		applied, err = s.repo.ApplyTransition(ctx, transition)
		return err
	})
	if err != nil {
		return repository.FollowUpStatus{}, err
	}

	s.publishOutcome(ctx, leadID, executedStep, applied, params.Outcome)
	s.log.Transition(leadID.String(), executedStep, applied.CurrentStepCode, string(params.Outcome), string(applied.Status))

	return applied, nil
}

// buildOutcomeTransition computes the post-state for one outcome. Pure with
// respect to storage; called once per CAS attempt on a fresh read.
func (s *Service) buildOutcomeTransition(st repository.FollowUpStatus, params RecordOutcomeParams, executedAt time.Time) (repository.TransitionParams, error) {
	effective := st.Status
	switch effective {
	case domain.StatusPaused:
		// A pause that has lapsed auto-resumes as part of this transition.
		if st.PausedUntil == nil || st.PausedUntil.After(executedAt) {
			return repository.TransitionParams{}, apperr.InvalidTransition("follow-up is paused")
		}
		effective = domain.StatusActive
	case domain.StatusActive:
	case domain.StatusReplied:
		return repository.TransitionParams{}, apperr.InvalidTransition("lead already replied; reactivate to continue the sequence")
	default:
		return repository.TransitionParams{}, apperr.InvalidTransition(
			fmt.Sprintf("follow-up is %s; use reactivate instead of recording outcomes", st.Status))
	}

	currentStep, ok := s.catalog.Step(st.CurrentStepCode)
	if !ok {
		return repository.TransitionParams{}, apperr.TemplateIntegrity(
			fmt.Sprintf("status references unknown step %s", st.CurrentStepCode))
	}

	channel := currentStep.DefaultChannel
	if st.PreferredChannel != nil {
		channel = *st.PreferredChannel
	}
	if params.Channel != nil {
		channel = *params.Channel
	}

	next := repository.TransitionParams{
		StatusID:        st.ID,
		LeadID:          st.LeadID,
		ExpectedVersion: st.Version,
		CurrentStepCode: st.CurrentStepCode,
		Status:          effective,
		NextFollowUpAt:  st.NextFollowUpAt,
		LastContactedAt: st.LastContactedAt,
		ContactCount:    st.ContactCount,
		ReplyCount:      st.ReplyCount,
		PausedUntil:     nil,
		History: &repository.HistoryParams{
			StepCode:         currentStep.Code,
			Channel:          channel,
			Outcome:          params.Outcome,
			MessageSent:      params.MessageSent,
			ResponseReceived: params.ResponseReceived,
			ExecutedAt:       executedAt,
		},
	}

	switch params.Outcome.Effect() {
	case domain.EffectReply:
		status := domain.StatusReplied
		if params.TerminalOverride != nil {
			status = *params.TerminalOverride
		}
		next.Status = status
		next.NextFollowUpAt = nil
		next.ReplyCount = st.ReplyCount + 1

	case domain.EffectLost:
		next.Status = domain.StatusLost
		next.NextFollowUpAt = nil

	case domain.EffectAdvance:
		nextStep, err := s.catalog.Advance(currentStep.Code)
		if err != nil {
			return repository.TransitionParams{}, err
		}
		due := executedAt.Add(time.Duration(nextStep.DaysAfterPrevious) * 24 * time.Hour)
		next.Status = domain.StatusActive
		next.CurrentStepCode = nextStep.Code
		next.NextFollowUpAt = &due
		next.LastContactedAt = &executedAt
		next.ContactCount = st.ContactCount + 1
	}

	return next, nil
}

// Pause suspends scheduling for an active lead. The current step is retained;
// the next-due timestamp is cleared until resume.
func (s *Service) Pause(ctx context.Context, leadID uuid.UUID, until *time.Time) (repository.FollowUpStatus, error) {
	var applied repository.FollowUpStatus
	err := s.withConflictRetry(func() error {
		st, err := s.repo.GetByLeadID(ctx, leadID)
		if err != nil {
			return mapStoreErr(err)
		}
		if st.Status != domain.StatusActive {
			return apperr.InvalidTransition(fmt.Sprintf("cannot pause a %s follow-up", st.Status))
		}

		applied, err = s.repo.ApplyTransition(ctx, repository.TransitionParams{
			StatusID:        st.ID,
			LeadID:          st.LeadID,
			ExpectedVersion: st.Version,
			CurrentStepCode: st.CurrentStepCode,
			Status:          domain.StatusPaused,
			NextFollowUpAt:  nil,
			LastContactedAt: st.LastContactedAt,
			ContactCount:    st.ContactCount,
			ReplyCount:      st.ReplyCount,
			PausedUntil:     until,
		})
		return err
	})
	if err != nil {
		return repository.FollowUpStatus{}, err
	}

	s.bus.Publish(ctx, events.FollowUpPaused{BaseEvent: events.NewBaseEvent(), LeadID: leadID, Until: until})
	return applied, nil
}

// Resume reactivates a paused lead. The next touch is due immediately.
func (s *Service) Resume(ctx context.Context, leadID uuid.UUID) (repository.FollowUpStatus, error) {
	var applied repository.FollowUpStatus
	err := s.withConflictRetry(func() error {
		st, err := s.repo.GetByLeadID(ctx, leadID)
		if err != nil {
			return mapStoreErr(err)
		}
		if st.Status != domain.StatusPaused {
			return apperr.InvalidTransition(fmt.Sprintf("cannot resume a %s follow-up", st.Status))
		}

		now := s.clock.Now()
		applied, err = s.repo.ApplyTransition(ctx, repository.TransitionParams{
			StatusID:        st.ID,
			LeadID:          st.LeadID,
			ExpectedVersion: st.Version,
			CurrentStepCode: st.CurrentStepCode,
			Status:          domain.StatusActive,
			NextFollowUpAt:  &now,
			LastContactedAt: st.LastContactedAt,
			ContactCount:    st.ContactCount,
			ReplyCount:      st.ReplyCount,
			PausedUntil:     nil,
		})
		return err
	})
	if err != nil {
		return repository.FollowUpStatus{}, err
	}

	s.bus.Publish(ctx, events.FollowUpResumed{BaseEvent: events.NewBaseEvent(), LeadID: leadID})
	return applied, nil
}

// MarkTerminal force-closes a lead as converted or lost. Idempotent: marking
// an already-terminal lead with the same status is a no-op success.
func (s *Service) MarkTerminal(ctx context.Context, leadID uuid.UUID, status domain.Status) (repository.FollowUpStatus, error) {
	if !status.Terminal() {
		return repository.FollowUpStatus{}, apperr.Validation(fmt.Sprintf("%s is not a terminal status", status))
	}

	var applied repository.FollowUpStatus
	var alreadyTerminal bool
	err := s.withConflictRetry(func() error {
		st, err := s.repo.GetByLeadID(ctx, leadID)
		if err != nil {
			return mapStoreErr(err)
		}
		if st.Status == status && st.NextFollowUpAt == nil {
			applied = st
			alreadyTerminal = true
			return nil
		}

		applied, err = s.repo.ApplyTransition(ctx, repository.TransitionParams{
			StatusID:        st.ID,
			LeadID:          st.LeadID,
			ExpectedVersion: st.Version,
			CurrentStepCode: st.CurrentStepCode,
			Status:          status,
			NextFollowUpAt:  nil,
			LastContactedAt: st.LastContactedAt,
			ContactCount:    st.ContactCount,
			ReplyCount:      st.ReplyCount,
			PausedUntil:     nil,
		})
		return err
	})
	if err != nil {
		return repository.FollowUpStatus{}, err
	}

	if !alreadyTerminal {
		switch status {
		case domain.StatusConverted:
			s.bus.Publish(ctx, events.LeadConverted{BaseEvent: events.NewBaseEvent(), LeadID: leadID})
		case domain.StatusLost:
			s.bus.Publish(ctx, events.LeadLost{BaseEvent: events.NewBaseEvent(), LeadID: leadID})
		}
	}
	return applied, nil
}

// Enroll creates the follow-up record for a lead entering the pipeline: first
// follow-up step, due immediately.
func (s *Service) Enroll(ctx context.Context, leadID uuid.UUID, preferred *domain.Channel) (repository.FollowUpStatus, error) {
	if preferred != nil && !preferred.Known() {
		return repository.FollowUpStatus{}, apperr.Validation(fmt.Sprintf("unknown channel %q", *preferred))
	}

	first, ok := s.catalog.First(domain.PhaseFollowUp)
	if !ok {
		return repository.FollowUpStatus{}, apperr.TemplateIntegrity("catalog has no follow-up entry step")
	}

	now := s.clock.Now()
	st, err := s.repo.Create(ctx, repository.CreateParams{
		LeadID:           leadID,
		CurrentStepCode:  first.Code,
		NextFollowUpAt:   now,
		PreferredChannel: preferred,
	})
	if errors.Is(err, repository.ErrAlreadyEnrolled) {
		return repository.FollowUpStatus{}, apperr.Conflict("lead is already enrolled in follow-up")
	}
	if err != nil {
		return repository.FollowUpStatus{}, err
	}

	s.bus.Publish(ctx, events.LeadEnrolled{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       leadID,
		StepCode:     first.Code,
		NextFollowUp: now,
	})
	return st, nil
}

// Reactivate explicitly restarts the sequence for a replied or terminal lead
// at the first reactivation step.
func (s *Service) Reactivate(ctx context.Context, leadID uuid.UUID) (repository.FollowUpStatus, error) {
	first, ok := s.catalog.First(domain.PhaseReactivation)
	if !ok {
		return repository.FollowUpStatus{}, apperr.TemplateIntegrity("catalog has no reactivation entry step")
	}

	var applied repository.FollowUpStatus
	err := s.withConflictRetry(func() error {
		st, err := s.repo.GetByLeadID(ctx, leadID)
		if err != nil {
			return mapStoreErr(err)
		}
		if st.Status.Schedulable() {
			return apperr.InvalidTransition(fmt.Sprintf("follow-up is %s; nothing to reactivate", st.Status))
		}

		now := s.clock.Now()
		applied, err = s.repo.ApplyTransition(ctx, repository.TransitionParams{
			StatusID:        st.ID,
			LeadID:          st.LeadID,
			ExpectedVersion: st.Version,
			CurrentStepCode: first.Code,
			Status:          domain.StatusActive,
			NextFollowUpAt:  &now,
			LastContactedAt: st.LastContactedAt,
			ContactCount:    st.ContactCount,
			ReplyCount:      st.ReplyCount,
			PausedUntil:     nil,
		})
		return err
	})
	if err != nil {
		return repository.FollowUpStatus{}, err
	}

	s.bus.Publish(ctx, events.LeadReactivated{BaseEvent: events.NewBaseEvent(), LeadID: leadID, StepCode: first.Code})
	return applied, nil
}

// StatusDetail is the dashboard read model: the status row plus the size of
// the lead's ledger.
type StatusDetail struct {
	repository.FollowUpStatus
	HistoryCount int
}

// GetStatus returns the follow-up read model for dashboards.
func (s *Service) GetStatus(ctx context.Context, leadID uuid.UUID) (StatusDetail, error) {
	st, err := s.repo.GetByLeadID(ctx, leadID)
	if err != nil {
		return StatusDetail{}, mapStoreErr(err)
	}
	count, err := s.repo.CountHistory(ctx, leadID)
	if err != nil {
		return StatusDetail{}, err
	}
	return StatusDetail{FollowUpStatus: st, HistoryCount: count}, nil
}

// SetPreferredChannel overrides the outreach channel for a lead; nil clears
// the override back to the step defaults. The override sits outside the CAS
// protocol because it never touches scheduling state.
func (s *Service) SetPreferredChannel(ctx context.Context, leadID uuid.UUID, channel *domain.Channel) (repository.FollowUpStatus, error) {
	if channel != nil && !channel.Known() {
		return repository.FollowUpStatus{}, apperr.Validation(fmt.Sprintf("unknown channel %q", *channel))
	}

	if err := s.repo.SetPreferredChannel(ctx, leadID, channel); err != nil {
		return repository.FollowUpStatus{}, mapStoreErr(err)
	}
	st, err := s.repo.GetByLeadID(ctx, leadID)
	if err != nil {
		return repository.FollowUpStatus{}, mapStoreErr(err)
	}
	return st, nil
}

// ListHistory returns the ledger timeline for a lead.
func (s *Service) ListHistory(ctx context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error) {
	if _, err := s.repo.GetByLeadID(ctx, leadID); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.repo.ListHistory(ctx, leadID)
}

// withConflictRetry runs fn and retries it exactly once on an optimistic-lock
// conflict. The second conflict surfaces to the caller for a full retry.
func (s *Service) withConflictRetry(fn func() error) error {
	err := fn()
	if !errors.Is(err, repository.ErrVersionConflict) {
		return err
	}
	if err := fn(); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperr.ConcurrentModification("follow-up status changed concurrently; retry the operation")
		}
		return err
	}
	return nil
}

func (s *Service) publishOutcome(ctx context.Context, leadID uuid.UUID, executedStep string, applied repository.FollowUpStatus, outcome domain.Outcome) {
	s.bus.Publish(ctx, events.OutcomeRecorded{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       leadID,
		StepCode:     executedStep,
		NextStepCode: applied.CurrentStepCode,
		Outcome:      string(outcome),
		Status:       string(applied.Status),
		NextFollowUp: applied.NextFollowUpAt,
	})

	switch applied.Status {
	case domain.StatusConverted:
		s.bus.Publish(ctx, events.LeadConverted{BaseEvent: events.NewBaseEvent(), LeadID: leadID})
	case domain.StatusLost:
		s.bus.Publish(ctx, events.LeadLost{BaseEvent: events.NewBaseEvent(), LeadID: leadID})
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead has no follow-up status record")
	}
	return err
}
