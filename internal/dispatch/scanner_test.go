package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/repository"
	"followup_backend/platform/clock"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeCandidateReader struct {
	candidates []repository.Candidate
}

func (f *fakeCandidateReader) ListDue(_ context.Context, _ time.Time, _ time.Duration, _ int) ([]repository.Candidate, error) {
	return f.candidates, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []FollowUpDuePayload
}

func (f *fakeEnqueuer) EnqueueFollowUpDue(_ context.Context, payload FollowUpDuePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeEnqueuer) leadIDs() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.payloads))
	for _, p := range f.payloads {
		out[p.LeadID] = true
	}
	return out
}

type fakeDispatchConfig struct{}

func (fakeDispatchConfig) GetRedisURL() string                { return "redis://localhost:6379" }
func (fakeDispatchConfig) GetRedisTLSInsecure() bool          { return false }
func (fakeDispatchConfig) GetAsynqQueueName() string          { return "followups" }
func (fakeDispatchConfig) GetAsynqConcurrency() int           { return 1 }
func (fakeDispatchConfig) GetDueScanInterval() time.Duration  { return time.Minute }
func (fakeDispatchConfig) GetDueScanLookahead() time.Duration { return time.Hour }
func (fakeDispatchConfig) GetDueScanBatchSize() int           { return 100 }

var scanNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func dueCandidate(status domain.Status, dueAt time.Time) repository.Candidate {
	return repository.Candidate{
		FollowUpStatus: repository.FollowUpStatus{
			ID:              uuid.New(),
			LeadID:          uuid.New(),
			CurrentStepCode: "fu_1_bump",
			Status:          status,
			NextFollowUpAt:  &dueAt,
		},
		LeadName: "lead",
	}
}

func TestScanner_EnqueuesActiveAndLapsedPausedCandidates(t *testing.T) {
	active := dueCandidate(domain.StatusActive, scanNow.Add(-time.Hour))

	// A lapsed pause has no next_follow_up_at of its own; the query surfaces
	// the elapsed paused_until as the candidate's due anchor.
	resumeAt := scanNow.Add(-30 * time.Minute)
	lapsed := dueCandidate(domain.StatusPaused, resumeAt)
	lapsed.PausedUntil = &resumeAt

	reader := &fakeCandidateReader{candidates: []repository.Candidate{active, lapsed}}
	enqueuer := &fakeEnqueuer{}
	scanner := NewScanner(reader, enqueuer, fakeDispatchConfig{}, clock.NewMock(scanNow), logger.New("development"))

	if err := scanner.scanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}

	got := enqueuer.leadIDs()
	if len(got) != 2 {
		t.Fatalf("expected both candidates enqueued, got %d", len(got))
	}
	if !got[active.LeadID.String()] {
		t.Fatal("active candidate missing from the queue")
	}
	if !got[lapsed.LeadID.String()] {
		t.Fatal("lapsed-paused candidate missing from the queue")
	}
}

func TestScanner_SkipsCandidatesWithoutDueAnchor(t *testing.T) {
	broken := dueCandidate(domain.StatusActive, scanNow)
	broken.NextFollowUpAt = nil

	reader := &fakeCandidateReader{candidates: []repository.Candidate{broken}}
	enqueuer := &fakeEnqueuer{}
	scanner := NewScanner(reader, enqueuer, fakeDispatchConfig{}, clock.NewMock(scanNow), logger.New("development"))

	if err := scanner.scanOnce(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(enqueuer.leadIDs()) != 0 {
		t.Fatal("anchorless candidate must not be enqueued")
	}
}
