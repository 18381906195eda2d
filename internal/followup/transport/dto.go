// Package transport defines the wire DTOs of the follow-up API.
package transport

import (
	"time"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/ranking"
	"followup_backend/internal/followup/repository"
	"followup_backend/internal/followup/scheduling"

	"github.com/google/uuid"
)

// Request DTOs

type EnrollRequest struct {
	LeadID           uuid.UUID `json:"leadId" validate:"required"`
	PreferredChannel *string   `json:"preferredChannel,omitempty" validate:"omitempty,oneof=whatsapp email sms call"`
}

type RecordOutcomeRequest struct {
	Outcome          string     `json:"outcome" validate:"required,oneof=sent no_answer call_back replied interested meeting_scheduled not_interested wrong_number"`
	Channel          *string    `json:"channel,omitempty" validate:"omitempty,oneof=whatsapp email sms call"`
	ExecutedAt       *time.Time `json:"executedAt,omitempty"`
	MessageSent      *string    `json:"messageSent,omitempty" validate:"omitempty,max=4000"`
	ResponseReceived *string    `json:"responseReceived,omitempty" validate:"omitempty,max=4000"`
	MarkConverted    bool       `json:"markConverted,omitempty"`
}

type PauseRequest struct {
	Until *time.Time `json:"until,omitempty"`
}

type MarkTerminalRequest struct {
	Status string `json:"status" validate:"required,oneof=converted lost"`
}

type SetPreferredChannelRequest struct {
	// A null channel clears the override back to the step defaults.
	Channel *string `json:"channel" validate:"omitempty,oneof=whatsapp email sms call"`
}

type TurboStartRequest struct {
	Limit     int    `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
	Lookahead string `json:"lookahead,omitempty"`
}

// Response DTOs

type StatusResponse struct {
	LeadID           uuid.UUID  `json:"leadId"`
	CurrentStepCode  string     `json:"currentStepCode"`
	Status           string     `json:"status"`
	NextFollowUpAt   *time.Time `json:"nextFollowUpAt,omitempty"`
	LastContactedAt  *time.Time `json:"lastContactedAt,omitempty"`
	ContactCount     int        `json:"contactCount"`
	ReplyCount       int        `json:"replyCount"`
	PreferredChannel *string    `json:"preferredChannel,omitempty"`
	PausedUntil      *time.Time `json:"pausedUntil,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// StatusDetailResponse is the single-lead read model with the ledger size.
type StatusDetailResponse struct {
	StatusResponse
	HistoryCount int `json:"historyCount"`
}

type HistoryEntryResponse struct {
	ID               uuid.UUID `json:"id"`
	StepCode         string    `json:"stepCode"`
	Channel          string    `json:"channel"`
	Outcome          string    `json:"outcome"`
	MessageSent      *string   `json:"messageSent,omitempty"`
	ResponseReceived *string   `json:"responseReceived,omitempty"`
	ExecutedAt       time.Time `json:"executedAt"`
}

type StepResponse struct {
	Code              string `json:"code"`
	Phase             string `json:"phase"`
	Order             int    `json:"order"`
	DaysAfterPrevious int    `json:"daysAfterPrevious"`
	DefaultChannel    string `json:"defaultChannel"`
	MessageTemplate   string `json:"messageTemplate"`
}

type NextActionsResponse struct {
	Actions []ranking.Action `json:"actions"`
}

// Mapping helpers

func ToStatusResponse(st repository.FollowUpStatus) StatusResponse {
	var preferred *string
	if st.PreferredChannel != nil {
		s := string(*st.PreferredChannel)
		preferred = &s
	}
	return StatusResponse{
		LeadID:           st.LeadID,
		CurrentStepCode:  st.CurrentStepCode,
		Status:           string(st.Status),
		NextFollowUpAt:   st.NextFollowUpAt,
		LastContactedAt:  st.LastContactedAt,
		ContactCount:     st.ContactCount,
		ReplyCount:       st.ReplyCount,
		PreferredChannel: preferred,
		PausedUntil:      st.PausedUntil,
		UpdatedAt:        st.UpdatedAt,
	}
}

func ToStatusDetailResponse(detail scheduling.StatusDetail) StatusDetailResponse {
	return StatusDetailResponse{
		StatusResponse: ToStatusResponse(detail.FollowUpStatus),
		HistoryCount:   detail.HistoryCount,
	}
}

func ToHistoryResponse(entries []repository.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			ID:               e.ID,
			StepCode:         e.StepCode,
			Channel:          string(e.Channel),
			Outcome:          string(e.Outcome),
			MessageSent:      e.MessageSent,
			ResponseReceived: e.ResponseReceived,
			ExecutedAt:       e.ExecutedAt,
		})
	}
	return out
}

func ToStepResponses(steps []domain.Step) []StepResponse {
	out := make([]StepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepResponse{
			Code:              s.Code,
			Phase:             string(s.Phase),
			Order:             s.Order,
			DaysAfterPrevious: s.DaysAfterPrevious,
			DefaultChannel:    string(s.DefaultChannel),
			MessageTemplate:   s.MessageTemplate,
		})
	}
	return out
}

// ChannelPtr converts an optional wire channel to its domain type.
func ChannelPtr(s *string) *domain.Channel {
	if s == nil {
		return nil
	}
	ch := domain.Channel(*s)
	return &ch
}
