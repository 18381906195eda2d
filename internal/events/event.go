// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"followup_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Follow-Up Domain Events
// =============================================================================

// LeadEnrolled is published when a lead enters the follow-up pipeline.
type LeadEnrolled struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	StepCode     string    `json:"stepCode"`
	NextFollowUp time.Time `json:"nextFollowUp"`
}

func (e LeadEnrolled) EventName() string { return "followup.lead.enrolled" }

// OutcomeRecorded is published after every successfully recorded step outcome.
type OutcomeRecorded struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"leadId"`
	StepCode     string     `json:"stepCode"`
	NextStepCode string     `json:"nextStepCode"`
	Outcome      string     `json:"outcome"`
	Status       string     `json:"status"`
	NextFollowUp *time.Time `json:"nextFollowUp,omitempty"`
}

func (e OutcomeRecorded) EventName() string { return "followup.outcome.recorded" }

// LeadConverted is published when a lead reaches the converted terminal state.
type LeadConverted struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadConverted) EventName() string { return "followup.lead.converted" }

// LeadLost is published when a lead reaches the lost terminal state.
type LeadLost struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadLost) EventName() string { return "followup.lead.lost" }

// FollowUpPaused is published when a lead's sequence is suspended.
type FollowUpPaused struct {
	BaseEvent
	LeadID uuid.UUID  `json:"leadId"`
	Until  *time.Time `json:"until,omitempty"`
}

func (e FollowUpPaused) EventName() string { return "followup.paused" }

// FollowUpResumed is published when a paused sequence is resumed.
type FollowUpResumed struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e FollowUpResumed) EventName() string { return "followup.resumed" }

// LeadReactivated is published when a terminal lead is explicitly put back
// into the sequence.
type LeadReactivated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	StepCode string    `json:"stepCode"`
}

func (e LeadReactivated) EventName() string { return "followup.lead.reactivated" }

// FollowUpDue is published by the dispatcher when a lead's next touch is due.
// Consumers only notify; they never mutate the follow-up record.
type FollowUpDue struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	StepCode string    `json:"stepCode"`
	DueAt    time.Time `json:"dueAt"`
}

func (e FollowUpDue) EventName() string { return "followup.touch.due" }
