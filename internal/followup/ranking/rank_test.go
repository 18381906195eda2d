package ranking

import (
	"testing"
	"time"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/repository"

	"github.com/google/uuid"
)

var rankNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	cat, err := domain.NewCatalog(domain.DefaultSteps())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func candidate(name, step string, dueDaysAgo int) repository.Candidate {
	due := rankNow.Add(-time.Duration(dueDaysAgo) * 24 * time.Hour)
	return repository.Candidate{
		FollowUpStatus: repository.FollowUpStatus{
			ID:              uuid.New(),
			LeadID:          uuid.New(),
			CurrentStepCode: step,
			Status:          domain.StatusActive,
			NextFollowUpAt:  &due,
		},
		LeadName: name,
	}
}

func TestRank_OverdueBeforePhasePrecedence(t *testing.T) {
	cat := testCatalog(t)

	// One lead 10 days overdue in reactivation, and a 3-day-overdue pair
	// split across the phase boundary.
	cands := []repository.Candidate{
		candidate("reactivation pair", "rx_1_update", 3),
		candidate("long overdue", "rx_2_news", 10),
		candidate("followup pair", "fu_2_value", 3),
	}

	got := Rank(cands, cat, rankNow, 10, DefaultWeights())
	if len(got) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(got))
	}

	// The most overdue lead leads the list despite its phase: its capped
	// score (90) beats both 3-day scores.
	if got[0].LeadName != "long overdue" {
		t.Fatalf("expected long overdue first, got %s", got[0].LeadName)
	}
	if got[0].Score != 90 {
		t.Fatalf("10 days overdue in reactivation must cap at 90, got %d", got[0].Score)
	}

	// At equal overdue-ness the followup phase outranks reactivation even
	// though the raw formula gives both 76 vs 86 with the bonus.
	if got[1].LeadName != "followup pair" || got[2].LeadName != "reactivation pair" {
		t.Fatalf("expected followup before reactivation, got %s then %s", got[1].LeadName, got[2].LeadName)
	}
	if got[1].Score != 86 { // 70 + 2*3 + 10 followup bonus
		t.Fatalf("expected followup pair score 86, got %d", got[1].Score)
	}
	if got[2].Score != 76 { // 70 + 2*3
		t.Fatalf("expected reactivation pair score 76, got %d", got[2].Score)
	}
}

func TestRank_ScoreFormula(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name  string
		days  int
		phase domain.Phase
		want  int
	}{
		{"due today reactivation", 0, domain.PhaseReactivation, 65},
		{"due today followup", 0, domain.PhaseFollowUp, 75},
		{"one day overdue", 1, domain.PhaseReactivation, 72},
		{"cap applies", 30, domain.PhaseReactivation, 90},
		{"cap plus bonus stays within range", 30, domain.PhaseFollowUp, 100},
		{"upcoming tomorrow", -1, domain.PhaseReactivation, 49},
		{"upcoming floor", -40, domain.PhaseLoop, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreFor(tt.days, tt.phase, w); got != tt.want {
				t.Errorf("scoreFor(%d, %s) = %d, want %d", tt.days, tt.phase, got, tt.want)
			}
		})
	}
}

func TestRank_UrgencyLabels(t *testing.T) {
	tests := []struct {
		name    string
		days    int
		replies int
		want    string
	}{
		{"strongly overdue", 8, 0, "stark überfällig"},
		{"overdue", 3, 0, "überfällig"},
		{"due today", 0, 0, "heute fällig"},
		{"upcoming", -2, 0, "anstehend"},
		{"replied lead never escalates", 12, 1, "überfällig"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urgencyLabel(tt.days, tt.replies); got != tt.want {
				t.Errorf("urgencyLabel(%d, %d) = %q, want %q", tt.days, tt.replies, got, tt.want)
			}
		})
	}
}

func TestRank_LapsedPausedCandidateRanks(t *testing.T) {
	cat := testCatalog(t)

	// A lapsed pause carries no next_follow_up_at; the repository surfaces
	// the elapsed paused_until as the due anchor, so the lead must rank like
	// any overdue candidate instead of being dropped.
	resumeAt := rankNow.Add(-2 * 24 * time.Hour)
	c := candidate("lapsed pause", "fu_2_value", 2)
	c.Status = domain.StatusPaused
	c.NextFollowUpAt = &resumeAt
	c.PausedUntil = &resumeAt

	got := Rank([]repository.Candidate{c}, cat, rankNow, 10, DefaultWeights())
	if len(got) != 1 {
		t.Fatalf("expected the lapsed-paused lead ranked, got %d actions", len(got))
	}
	if got[0].DaysOverdue != 2 {
		t.Fatalf("expected 2 days overdue from the pause anchor, got %d", got[0].DaysOverdue)
	}
	if got[0].UrgencyLabel != "überfällig" {
		t.Fatalf("expected überfällig, got %q", got[0].UrgencyLabel)
	}
}

func TestRank_ReasonCoversPhaseAndHistory(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		step     domain.Step
		contacts int
		replies  int
		want     string
	}{
		{
			"overdue followup with history",
			3, domain.Step{Code: "fu_2_value", Phase: domain.PhaseFollowUp}, 2, 0,
			"Schritt fu_2_value ist seit 3 Tagen fällig (Follow-up-Phase, 2 Kontakte, 0 Antworten)",
		},
		{
			"singular day and counts",
			1, domain.Step{Code: "rx_1_update", Phase: domain.PhaseReactivation}, 1, 1,
			"Schritt rx_1_update ist seit 1 Tag fällig (Reaktivierungsphase, 1 Kontakt, 1 Antwort)",
		},
		{
			"due today in the loop",
			0, domain.Step{Code: "rx_loop_checkin", Phase: domain.PhaseLoop}, 5, 2,
			"Schritt rx_loop_checkin ist heute fällig (Dauerschleife, 5 Kontakte, 2 Antworten)",
		},
		{
			"upcoming",
			-2, domain.Step{Code: "fu_1_bump", Phase: domain.PhaseFollowUp}, 0, 0,
			"Schritt fu_1_bump ist in 2 Tagen fällig (Follow-up-Phase, 0 Kontakte, 0 Antworten)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reasonFor(tt.days, tt.step, tt.contacts, tt.replies); got != tt.want {
				t.Errorf("reasonFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRank_Deterministic(t *testing.T) {
	cat := testCatalog(t)
	cands := []repository.Candidate{
		candidate("a", "fu_1_bump", 2),
		candidate("b", "fu_2_value", 2),
		candidate("c", "rx_1_update", 5),
		candidate("d", "rx_loop_checkin", 0),
	}

	first := Rank(cands, cat, rankNow, 10, DefaultWeights())
	second := Rank(cands, cat, rankNow, 10, DefaultWeights())

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].LeadID != second[i].LeadID {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].LeadName, second[i].LeadName)
		}
	}
}

func TestRank_LimitAndDefaults(t *testing.T) {
	cat := testCatalog(t)
	cands := make([]repository.Candidate, 0, 15)
	for i := 0; i < 15; i++ {
		cands = append(cands, candidate("lead", "fu_1_bump", i))
	}

	if got := Rank(cands, cat, rankNow, 3, DefaultWeights()); len(got) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(got))
	}
	// Zero limit falls back to the configured default of 10.
	if got := Rank(cands, cat, rankNow, 0, DefaultWeights()); len(got) != 10 {
		t.Fatalf("expected default limit 10, got %d", len(got))
	}
}

func TestRank_SkipsUnresolvableCandidates(t *testing.T) {
	cat := testCatalog(t)

	ghost := candidate("ghost", "step_gone", 3)
	noDue := candidate("no due", "fu_1_bump", 0)
	noDue.NextFollowUpAt = nil

	got := Rank([]repository.Candidate{ghost, noDue, candidate("ok", "fu_1_bump", 1)}, cat, rankNow, 10, DefaultWeights())
	if len(got) != 1 || got[0].LeadName != "ok" {
		t.Fatalf("expected only the resolvable candidate, got %+v", got)
	}
}

func TestRank_ActionCarriesDraftAndChannel(t *testing.T) {
	cat := testCatalog(t)

	c := candidate("draft", "fu_2_value", 0)
	preferred := domain.ChannelWhatsApp
	c.PreferredChannel = &preferred

	got := Rank([]repository.Candidate{c}, cat, rankNow, 10, DefaultWeights())
	if len(got) != 1 {
		t.Fatalf("expected 1 action, got %d", len(got))
	}
	if got[0].Channel != domain.ChannelWhatsApp {
		t.Fatalf("preferred channel must win, got %s", got[0].Channel)
	}
	if got[0].MessageDraft == "" {
		t.Fatal("action must carry the step's message template")
	}
	if got[0].Phase != domain.PhaseFollowUp {
		t.Fatalf("expected followup phase, got %s", got[0].Phase)
	}
}
