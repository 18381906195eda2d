// Package turbo drives batch follow-up sessions: the agent walks the ranked
// action list item by item, and any item left untouched past the auto-advance
// window is recorded as sent and moved on.
package turbo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/ranking"
	"followup_backend/internal/followup/repository"
	"followup_backend/internal/followup/scheduling"
	"followup_backend/platform/apperr"
	"followup_backend/platform/clock"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
)

// OutcomeRecorder is the slice of the scheduling service the runner needs.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, leadID uuid.UUID, params scheduling.RecordOutcomeParams) (repository.FollowUpStatus, error)
}

// Runner holds at most one turbo session. Sessions are in-memory only, but
// starting again with the same action list resumes where the previous session
// left off: entries completed last time are not presented again.
type Runner struct {
	mu        sync.Mutex
	scheduler OutcomeRecorder
	clock     clock.Clock
	window    time.Duration
	log       *logger.Logger

	running   bool
	actions   []ranking.Action
	index     int
	completed map[int]struct{}
	skipped   map[int]struct{}

	// armGen invalidates timers armed for an item the agent already handled.
	armGen    int
	timer     clock.Timer
	timerStop chan struct{}
	ctx       context.Context
}

// New creates a runner. The window is how long an item may sit before the
// runner records a sent outcome on the agent's behalf.
func New(scheduler OutcomeRecorder, clk clock.Clock, window time.Duration, log *logger.Logger) *Runner {
	return &Runner{scheduler: scheduler, clock: clk, window: window, log: log}
}

// Progress is a snapshot of the session for the UI.
type Progress struct {
	Running   bool            `json:"running"`
	Total     int             `json:"total"`
	Position  int             `json:"position"`
	Completed int             `json:"completed"`
	Skipped   int             `json:"skipped"`
	Current   *ranking.Action `json:"current,omitempty"`
}

// Start begins a session over the given actions. A running session must be
// stopped first. Re-entry with the action list of the previous session keeps
// its completed set and resumes at the first unfinished entry.
func (r *Runner) Start(ctx context.Context, actions []ranking.Action) (Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return Progress{}, apperr.Conflict("a turbo session is already running")
	}
	if len(actions) == 0 {
		return Progress{}, apperr.Validation("no follow-up actions to run")
	}

	completed := make(map[int]struct{})
	if r.resumesPriorList(actions) {
		completed = r.completed
	}
	if len(completed) == len(actions) {
		return Progress{}, apperr.Validation("every action in the list is already completed")
	}

	r.running = true
	r.actions = actions
	r.index = 0
	r.completed = completed
	r.skipped = make(map[int]struct{})
	r.ctx = context.WithoutCancel(ctx)
	r.seekLocked()
	r.armTimerLocked()

	r.log.Info("turbo session started",
		"actions", len(actions), "resumed_at", r.index, "already_completed", len(completed))
	return r.progressLocked(), nil
}

// resumesPriorList reports whether the new list is the same batch the previous
// session worked on, so its completed entries carry over.
func (r *Runner) resumesPriorList(actions []ranking.Action) bool {
	if len(r.completed) == 0 || len(actions) != len(r.actions) {
		return false
	}
	for i := range actions {
		if actions[i].LeadID != r.actions[i].LeadID || actions[i].StepCode != r.actions[i].StepCode {
			return false
		}
	}
	return true
}

// Record applies the agent's outcome to the current item and advances.
// Per-item scheduling rejections (the lead changed underneath the session)
// skip the item instead of aborting the whole session.
func (r *Runner) Record(ctx context.Context, params scheduling.RecordOutcomeParams) (Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return Progress{}, apperr.InvalidTransition("no turbo session is running")
	}

	action := r.actions[r.index]
	_, err := r.scheduler.RecordOutcome(ctx, action.LeadID, params)
	switch {
	case err == nil:
		r.completed[r.index] = struct{}{}
	case apperr.IsKind(err, apperr.KindInvalidTransition), apperr.IsKind(err, apperr.KindNotFound):
		r.log.Warn("turbo item no longer actionable, skipping",
			"lead_id", action.LeadID.String(), "step", action.StepCode, "error", err.Error())
		r.skipped[r.index] = struct{}{}
	default:
		return Progress{}, err
	}

	r.advanceLocked()
	return r.progressLocked(), nil
}

// Skip moves past the current item without recording anything.
func (r *Runner) Skip() (Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return Progress{}, apperr.InvalidTransition("no turbo session is running")
	}

	r.skipped[r.index] = struct{}{}
	r.advanceLocked()
	return r.progressLocked(), nil
}

// Stop ends the session early. Already recorded outcomes stay recorded.
func (r *Runner) Stop() (Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return Progress{}, apperr.InvalidTransition("no turbo session is running")
	}

	p := r.progressLocked()
	r.finishLocked("stopped")
	p.Running = false
	p.Current = nil
	return p, nil
}

// Progress reports the current session state.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progressLocked()
}

func (r *Runner) progressLocked() Progress {
	p := Progress{
		Running:   r.running,
		Total:     len(r.actions),
		Position:  r.index,
		Completed: len(r.completed),
		Skipped:   len(r.skipped),
	}
	if r.running && r.index < len(r.actions) {
		current := r.actions[r.index]
		p.Current = &current
	}
	return p
}

func (r *Runner) advanceLocked() {
	r.index++
	if !r.seekLocked() {
		r.finishLocked("completed")
		return
	}
	r.armTimerLocked()
}

// seekLocked moves the index past entries already completed in a prior run of
// the same list. Reports whether an unfinished entry remains.
func (r *Runner) seekLocked() bool {
	for r.index < len(r.actions) {
		if _, done := r.completed[r.index]; !done {
			return true
		}
		r.index++
	}
	return false
}

func (r *Runner) finishLocked(reason string) {
	r.armGen++
	r.disarmTimerLocked()
	r.running = false
	r.log.Info(fmt.Sprintf("turbo session %s", reason),
		"completed", len(r.completed), "skipped", len(r.skipped), "total", len(r.actions))
}

func (r *Runner) disarmTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.timerStop != nil {
		close(r.timerStop)
		r.timerStop = nil
	}
}

func (r *Runner) armTimerLocked() {
	r.armGen++
	r.disarmTimerLocked()
	if r.window <= 0 {
		return
	}

	gen := r.armGen
	r.timer = r.clock.NewTimer(r.window)
	r.timerStop = make(chan struct{})
	go func(t clock.Timer, stop <-chan struct{}) {
		select {
		case <-t.C():
			r.autoAdvance(gen)
		case <-stop:
		}
	}(r.timer, r.timerStop)
}

// autoAdvance fires when the agent left an item untouched for the whole
// window. It records a sent outcome on the default channel and moves on.
func (r *Runner) autoAdvance(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || gen != r.armGen {
		return // the item was handled before the timer fired
	}

	action := r.actions[r.index]
	_, err := r.scheduler.RecordOutcome(r.ctx, action.LeadID, scheduling.RecordOutcomeParams{
		Outcome:    domain.OutcomeSent,
		Channel:    &action.Channel,
		ExecutedAt: r.clock.Now(),
	})
	if err != nil {
		r.log.Warn("turbo auto-advance could not record, skipping",
			"lead_id", action.LeadID.String(), "step", action.StepCode, "error", err.Error())
		r.skipped[r.index] = struct{}{}
	} else {
		r.completed[r.index] = struct{}{}
		r.log.Info("turbo auto-advanced", "lead_id", action.LeadID.String(), "step", action.StepCode)
	}

	r.advanceLocked()
}
