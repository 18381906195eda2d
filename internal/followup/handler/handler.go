// Package handler exposes the follow-up engine over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/ranking"
	"followup_backend/internal/followup/scheduling"
	"followup_backend/internal/followup/transport"
	"followup_backend/internal/followup/turbo"
	"followup_backend/internal/http/response"
	"followup_backend/internal/leads"
	"followup_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	defaultLookahead = 24 * time.Hour
)

// ChannelGate answers channel availability for a lead before the UI offers a
// send deep link.
type ChannelGate interface {
	CanSend(ctx context.Context, channel domain.Channel, lead leads.Lead) (bool, string)
	Availability(ctx context.Context) map[domain.Channel]bool
}

// LeadReader is the lead identity slice the handlers need.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leads.Lead, error)
}

type Handler struct {
	scheduler *scheduling.Service
	ranking   *ranking.Service
	runner    *turbo.Runner
	catalog   *domain.Catalog
	gate      ChannelGate
	leads     LeadReader
	val       *validator.Validator
}

func New(scheduler *scheduling.Service, rankingSvc *ranking.Service, runner *turbo.Runner, catalog *domain.Catalog, gate ChannelGate, leadReader LeadReader, val *validator.Validator) *Handler {
	return &Handler{
		scheduler: scheduler,
		ranking:   rankingSvc,
		runner:    runner,
		catalog:   catalog,
		gate:      gate,
		leads:     leadReader,
		val:       val,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Enroll)
	rg.GET("/next-actions", h.NextActions)
	rg.GET("/steps", h.ListSteps)
	rg.GET("/channels", h.ChannelAvailability)
	rg.GET("/:leadId", h.GetStatus)
	rg.GET("/:leadId/history", h.ListHistory)
	rg.GET("/:leadId/channels", h.LeadChannels)
	rg.PUT("/:leadId/channel", h.SetPreferredChannel)
	rg.POST("/:leadId/outcome", h.RecordOutcome)
	rg.POST("/:leadId/pause", h.Pause)
	rg.POST("/:leadId/resume", h.Resume)
	rg.POST("/:leadId/reactivate", h.Reactivate)
	rg.POST("/:leadId/terminal", h.MarkTerminal)
}

func (h *Handler) RegisterTurboRoutes(rg *gin.RouterGroup) {
	rg.POST("/start", h.TurboStart)
	rg.POST("/outcome", h.TurboRecord)
	rg.POST("/skip", h.TurboSkip)
	rg.POST("/stop", h.TurboStop)
	rg.GET("/progress", h.TurboProgress)
}

func (h *Handler) Enroll(c *gin.Context) {
	var req transport.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if _, err := h.leads.GetByID(c.Request.Context(), req.LeadID); err != nil {
		response.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}

	st, err := h.scheduler.Enroll(c.Request.Context(), req.LeadID, transport.ChannelPtr(req.PreferredChannel))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, transport.ToStatusResponse(st))
}

func (h *Handler) NextActions(c *gin.Context) {
	limit := intQuery(c, "limit", 0)
	lookahead := durationQuery(c, "lookahead", defaultLookahead)

	actions, err := h.ranking.NextActions(c.Request.Context(), limit, lookahead)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.NextActionsResponse{Actions: actions})
}

func (h *Handler) ListSteps(c *gin.Context) {
	response.OK(c, transport.ToStepResponses(h.catalog.Steps()))
}

func (h *Handler) ChannelAvailability(c *gin.Context) {
	response.OK(c, h.gate.Availability(c.Request.Context()))
}

func (h *Handler) GetStatus(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	detail, err := h.scheduler.GetStatus(c.Request.Context(), leadID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToStatusDetailResponse(detail))
}

// SetPreferredChannel stores or clears the per-lead channel override.
func (h *Handler) SetPreferredChannel(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.SetPreferredChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	st, err := h.scheduler.SetPreferredChannel(c.Request.Context(), leadID, transport.ChannelPtr(req.Channel))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToStatusResponse(st))
}

func (h *Handler) ListHistory(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	entries, err := h.scheduler.ListHistory(c.Request.Context(), leadID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToHistoryResponse(entries))
}

// LeadChannels reports per-channel availability for one lead, including
// lead-side checks like phone validity.
func (h *Handler) LeadChannels(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	lead, err := h.leads.GetByID(c.Request.Context(), leadID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}

	type channelStatus struct {
		CanSend bool   `json:"canSend"`
		Reason  string `json:"reason,omitempty"`
	}
	out := make(map[domain.Channel]channelStatus, 4)
	for _, ch := range []domain.Channel{domain.ChannelWhatsApp, domain.ChannelEmail, domain.ChannelSMS, domain.ChannelCall} {
		canSend, reason := h.gate.CanSend(c.Request.Context(), ch, lead)
		out[ch] = channelStatus{CanSend: canSend, Reason: reason}
	}
	response.OK(c, out)
}

func (h *Handler) RecordOutcome(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.RecordOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	st, err := h.scheduler.RecordOutcome(c.Request.Context(), leadID, recordParams(req))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToStatusResponse(st))
}

func (h *Handler) Pause(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	// The body is optional; pause without a deadline is open-ended.
	var req transport.PauseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}

	st, err := h.scheduler.Pause(c.Request.Context(), leadID, req.Until)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToStatusResponse(st))
}

func (h *Handler) Resume(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	st, err := h.scheduler.Resume(c.Request.Context(), leadID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToStatusResponse(st))
}

func (h *Handler) Reactivate(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	st, err := h.scheduler.Reactivate(c.Request.Context(), leadID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToStatusResponse(st))
}

func (h *Handler) MarkTerminal(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	var req transport.MarkTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	st, err := h.scheduler.MarkTerminal(c.Request.Context(), leadID, domain.Status(req.Status))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, transport.ToStatusResponse(st))
}

func (h *Handler) TurboStart(c *gin.Context) {
	var req transport.TurboStartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lookahead := defaultLookahead
	if req.Lookahead != "" {
		d, err := time.ParseDuration(req.Lookahead)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid lookahead duration", nil)
			return
		}
		lookahead = d
	}

	actions, err := h.ranking.NextActions(c.Request.Context(), req.Limit, lookahead)
	if err != nil {
		response.FromError(c, err)
		return
	}

	progress, err := h.runner.Start(c.Request.Context(), actions)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, progress)
}

func (h *Handler) TurboRecord(c *gin.Context) {
	var req transport.RecordOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	progress, err := h.runner.Record(c.Request.Context(), recordParams(req))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, progress)
}

func (h *Handler) TurboSkip(c *gin.Context) {
	progress, err := h.runner.Skip()
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, progress)
}

func (h *Handler) TurboStop(c *gin.Context) {
	progress, err := h.runner.Stop()
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, progress)
}

func (h *Handler) TurboProgress(c *gin.Context) {
	response.OK(c, h.runner.Progress())
}

func recordParams(req transport.RecordOutcomeRequest) scheduling.RecordOutcomeParams {
	params := scheduling.RecordOutcomeParams{
		Outcome:          domain.Outcome(req.Outcome),
		Channel:          transport.ChannelPtr(req.Channel),
		MessageSent:      req.MessageSent,
		ResponseReceived: req.ResponseReceived,
	}
	if req.ExecutedAt != nil {
		params.ExecutedAt = *req.ExecutedAt
	}
	if req.MarkConverted {
		converted := domain.StatusConverted
		params.TerminalOverride = &converted
	}
	return params
}

func leadIDParam(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.UUID{}, false
	}
	return leadID, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func durationQuery(c *gin.Context, name string, fallback time.Duration) time.Duration {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
