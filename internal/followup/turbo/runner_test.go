package turbo

import (
	"context"
	"sync"
	"testing"
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

type recordedCall struct {
	leadID  uuid.UUID
	outcome domain.Outcome
}

// fakeScheduler captures RecordOutcome calls and can fail specific leads.
type fakeScheduler struct {
	mu       sync.Mutex
	calls    []recordedCall
	failWith map[uuid.UUID]error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{failWith: make(map[uuid.UUID]error)}
}

func (f *fakeScheduler) RecordOutcome(_ context.Context, leadID uuid.UUID, params scheduling.RecordOutcomeParams) (repository.FollowUpStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWith[leadID]; ok {
		return repository.FollowUpStatus{}, err
	}
	f.calls = append(f.calls, recordedCall{leadID: leadID, outcome: params.Outcome})
	return repository.FollowUpStatus{LeadID: leadID}, nil
}

func (f *fakeScheduler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeScheduler) call(i int) recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func testActions(n int) []ranking.Action {
	actions := make([]ranking.Action, 0, n)
	for i := 0; i < n; i++ {
		actions = append(actions, ranking.Action{
			LeadID:   uuid.New(),
			StepCode: "fu_1_bump",
			Channel:  domain.ChannelWhatsApp,
		})
	}
	return actions
}

const turboWindow = 20 * time.Second

func newTestRunner(scheduler *fakeScheduler) (*Runner, *clock.Mock) {
	clk := clock.NewMock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	return New(scheduler, clk, turboWindow, logger.New("development")), clk
}

// waitFor polls until cond holds; the auto-advance path runs on the timer's
// goroutine, so assertions after clock.Advance need to wait for it.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRunner_StartValidation(t *testing.T) {
	runner, _ := newTestRunner(newFakeScheduler())

	if _, err := runner.Start(context.Background(), nil); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("empty session must be rejected, got %v", err)
	}

	if _, err := runner.Start(context.Background(), testActions(2)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := runner.Start(context.Background(), testActions(1)); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second session must conflict, got %v", err)
	}
}

func TestRunner_ManualRecordWalksTheList(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, _ := newTestRunner(scheduler)
	actions := testActions(2)

	p, err := runner.Start(context.Background(), actions)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.Current == nil || p.Current.LeadID != actions[0].LeadID {
		t.Fatalf("session must start at the first action, got %+v", p.Current)
	}

	p, err = runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeNoAnswer})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.Completed != 1 || p.Position != 1 {
		t.Fatalf("expected completed=1 position=1, got %+v", p)
	}
	if got := scheduler.call(0); got.leadID != actions[0].LeadID || got.outcome != domain.OutcomeNoAnswer {
		t.Fatalf("wrong scheduler call: %+v", got)
	}

	p, err = runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.Running {
		t.Fatal("session must finish after the last item")
	}
	if p.Completed != 2 {
		t.Fatalf("expected 2 completed, got %d", p.Completed)
	}
}

func TestRunner_AutoAdvanceRecordsSent(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, clk := newTestRunner(scheduler)
	actions := testActions(2)

	if _, err := runner.Start(context.Background(), actions); err != nil {
		t.Fatalf("start: %v", err)
	}

	clk.Advance(turboWindow)
	waitFor(t, func() bool { return runner.Progress().Position == 1 })

	if got := scheduler.call(0); got.leadID != actions[0].LeadID || got.outcome != domain.OutcomeSent {
		t.Fatalf("auto-advance must record sent for the first lead, got %+v", got)
	}

	clk.Advance(turboWindow)
	waitFor(t, func() bool { return !runner.Progress().Running })

	if scheduler.callCount() != 2 {
		t.Fatalf("expected 2 auto-recorded outcomes, got %d", scheduler.callCount())
	}
}

func TestRunner_SkipHasNoSideEffects(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, clk := newTestRunner(scheduler)
	actions := testActions(2)

	if _, err := runner.Start(context.Background(), actions); err != nil {
		t.Fatalf("start: %v", err)
	}

	p, err := runner.Skip()
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if p.Skipped != 1 || p.Position != 1 {
		t.Fatalf("expected skipped=1 position=1, got %+v", p)
	}
	if scheduler.callCount() != 0 {
		t.Fatalf("skip must not call the scheduler, got %d calls", scheduler.callCount())
	}

	// The first item's timer was disarmed by the skip; advancing must only
	// fire the second item's timer.
	clk.Advance(turboWindow)
	waitFor(t, func() bool { return !runner.Progress().Running })
	if scheduler.callCount() != 1 {
		t.Fatalf("expected exactly 1 auto-record after skip, got %d", scheduler.callCount())
	}
	if got := scheduler.call(0); got.leadID != actions[1].LeadID {
		t.Fatalf("auto-record must target the second lead, got %+v", got)
	}
}

func TestRunner_StopCancelsTimer(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, clk := newTestRunner(scheduler)

	if _, err := runner.Start(context.Background(), testActions(3)); err != nil {
		t.Fatalf("start: %v", err)
	}

	p, err := runner.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.Running {
		t.Fatal("stop must end the session")
	}

	clk.Advance(10 * turboWindow)
	time.Sleep(10 * time.Millisecond)
	if scheduler.callCount() != 0 {
		t.Fatalf("stopped session must not auto-record, got %d calls", scheduler.callCount())
	}

	if _, err := runner.Stop(); !apperr.IsKind(err, apperr.KindInvalidTransition) {
		t.Fatalf("stopping a stopped session must fail, got %v", err)
	}
}

func TestRunner_StaleItemIsSkippedNotFatal(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, _ := newTestRunner(scheduler)
	actions := testActions(2)
	scheduler.failWith[actions[0].LeadID] = apperr.InvalidTransition("lead already replied")

	if _, err := runner.Start(context.Background(), actions); err != nil {
		t.Fatalf("start: %v", err)
	}

	p, err := runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent})
	if err != nil {
		t.Fatalf("stale item must not abort the session: %v", err)
	}
	if p.Skipped != 1 || p.Completed != 0 || p.Position != 1 {
		t.Fatalf("expected the stale item skipped, got %+v", p)
	}
}

func TestRunner_ReentrySkipsCompletedItems(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, _ := newTestRunner(scheduler)
	actions := testActions(3)

	if _, err := runner.Start(context.Background(), actions); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := runner.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Restarting with the same list must resume past the recorded item, not
	// present it for a second outcome.
	p, err := runner.Start(context.Background(), actions)
	if err != nil {
		t.Fatalf("re-entry start: %v", err)
	}
	if p.Current == nil || p.Current.LeadID != actions[1].LeadID {
		t.Fatalf("re-entry must resume at the second action, got %+v", p.Current)
	}
	if p.Completed != 1 || p.Position != 1 {
		t.Fatalf("expected completed=1 position=1 after re-entry, got %+v", p)
	}

	if _, err := runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p, err = runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.Running {
		t.Fatal("session must finish after the last item")
	}

	// The first lead was recorded exactly once across both runs.
	if scheduler.callCount() != 3 {
		t.Fatalf("expected 3 recorded outcomes total, got %d", scheduler.callCount())
	}
	for i := 0; i < 3; i++ {
		if got := scheduler.call(i); got.leadID != actions[i].LeadID {
			t.Fatalf("call %d targeted %s, want %s", i, got.leadID, actions[i].LeadID)
		}
	}
}

func TestRunner_ReentryWithFullyCompletedListIsRejected(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, _ := newTestRunner(scheduler)
	actions := testActions(1)

	if _, err := runner.Start(context.Background(), actions); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if _, err := runner.Start(context.Background(), actions); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("a fully completed list must be rejected, got %v", err)
	}
	if scheduler.callCount() != 1 {
		t.Fatalf("the lead must not be recorded again, got %d calls", scheduler.callCount())
	}
}

func TestRunner_FreshListResetsCompletedSet(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, _ := newTestRunner(scheduler)

	if _, err := runner.Start(context.Background(), testActions(2)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := runner.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	p, err := runner.Start(context.Background(), testActions(2))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.Completed != 0 || p.Position != 0 {
		t.Fatalf("a different list must start fresh, got %+v", p)
	}
}

func TestRunner_UnexpectedErrorSurfaces(t *testing.T) {
	scheduler := newFakeScheduler()
	runner, _ := newTestRunner(scheduler)
	actions := testActions(1)
	scheduler.failWith[actions[0].LeadID] = apperr.Internal("storage down")

	if _, err := runner.Start(context.Background(), actions); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := runner.Record(context.Background(), scheduling.RecordOutcomeParams{Outcome: domain.OutcomeSent}); !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("internal errors must surface, got %v", err)
	}
	if !runner.Progress().Running {
		t.Fatal("session must stay running after a surfaced error")
	}
}
