package domain

import (
	"testing"

	"followup_backend/platform/apperr"
)

func validSteps() []Step {
	return []Step{
		{Code: "a0", Phase: PhaseFollowUp, Order: 0, DaysAfterPrevious: 0, DefaultChannel: ChannelWhatsApp, MessageTemplate: "t"},
		{Code: "a1", Phase: PhaseFollowUp, Order: 1, DaysAfterPrevious: 3, DefaultChannel: ChannelEmail, MessageTemplate: "t"},
		{Code: "r0", Phase: PhaseReactivation, Order: 0, DaysAfterPrevious: 21, DefaultChannel: ChannelEmail, MessageTemplate: "t"},
		{Code: "loop", Phase: PhaseLoop, Order: 0, DaysAfterPrevious: 180, DefaultChannel: ChannelEmail, MessageTemplate: "t"},
	}
}

func TestNewCatalog_Valid(t *testing.T) {
	cat, err := NewCatalog(validSteps())
	if err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}

	first, ok := cat.First(PhaseFollowUp)
	if !ok || first.Code != "a0" {
		t.Fatalf("expected first followup step a0, got %v (ok=%v)", first.Code, ok)
	}
	if got := len(cat.Steps()); got != 4 {
		t.Fatalf("expected 4 steps, got %d", got)
	}
}

func TestNewCatalog_IntegrityFailures(t *testing.T) {
	mutate := func(fn func([]Step) []Step) []Step {
		return fn(validSteps())
	}

	cases := []struct {
		name  string
		steps []Step
	}{
		{"order gap", mutate(func(s []Step) []Step {
			s[1].Order = 2
			return s
		})},
		{"no followup zero step", mutate(func(s []Step) []Step {
			s[0].Order = 5
			return s
		})},
		{"two loop steps", mutate(func(s []Step) []Step {
			return append(s, Step{Code: "loop2", Phase: PhaseLoop, Order: 1, DaysAfterPrevious: 90, DefaultChannel: ChannelEmail, MessageTemplate: "t"})
		})},
		{"empty template", mutate(func(s []Step) []Step {
			s[2].MessageTemplate = ""
			return s
		})},
		{"unknown phase", mutate(func(s []Step) []Step {
			s[2].Phase = "nurture"
			return s
		})},
		{"unknown channel", mutate(func(s []Step) []Step {
			s[0].DefaultChannel = "fax"
			return s
		})},
		{"duplicate code", mutate(func(s []Step) []Step {
			s[1].Code = "a0"
			return s
		})},
		{"negative offset", mutate(func(s []Step) []Step {
			s[1].DaysAfterPrevious = -1
			return s
		})},
		{"missing reactivation phase", mutate(func(s []Step) []Step {
			return []Step{s[0], s[1], s[3]}
		})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(tc.steps)
			if err == nil {
				t.Fatalf("expected integrity error")
			}
			if !apperr.IsKind(err, apperr.KindTemplateIntegrity) {
				t.Fatalf("expected template integrity kind, got %v", err)
			}
		})
	}
}

func TestCatalog_AdvanceWithinPhase(t *testing.T) {
	cat, err := NewCatalog(validSteps())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	next, err := cat.Advance("a0")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Code != "a1" {
		t.Fatalf("expected a1, got %s", next.Code)
	}
}

func TestCatalog_AdvanceCrossesPhaseBoundaries(t *testing.T) {
	cat, err := NewCatalog(validSteps())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	// Last followup step lands on the first reactivation step.
	next, err := cat.Advance("a1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Code != "r0" || next.Phase != PhaseReactivation {
		t.Fatalf("expected r0/reactivation, got %s/%s", next.Code, next.Phase)
	}

	// Last reactivation step lands on the loop step.
	next, err = cat.Advance("r0")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Code != "loop" || next.Phase != PhaseLoop {
		t.Fatalf("expected loop step, got %s/%s", next.Code, next.Phase)
	}
}

func TestCatalog_AdvanceLoopReanchorsItself(t *testing.T) {
	cat, err := NewCatalog(validSteps())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	next, err := cat.Advance("loop")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Code != "loop" {
		t.Fatalf("loop step must re-anchor to itself, got %s", next.Code)
	}
	if next.DaysAfterPrevious != 180 {
		t.Fatalf("expected 180 day loop interval, got %d", next.DaysAfterPrevious)
	}
}

func TestCatalog_AdvanceUnknownStep(t *testing.T) {
	cat, err := NewCatalog(validSteps())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	if _, err := cat.Advance("ghost"); !apperr.IsKind(err, apperr.KindTemplateIntegrity) {
		t.Fatalf("expected template integrity error, got %v", err)
	}
}

func TestDefaultSteps_FormValidCatalog(t *testing.T) {
	cat, err := NewCatalog(DefaultSteps())
	if err != nil {
		t.Fatalf("default steps must validate: %v", err)
	}

	// The documented chain: fu_1_bump advances to fu_2_value,
	// fu_4_last_touch crosses into rx_1_update.
	next, err := cat.Advance("fu_1_bump")
	if err != nil || next.Code != "fu_2_value" {
		t.Fatalf("expected fu_2_value after fu_1_bump, got %v (%v)", next.Code, err)
	}
	next, err = cat.Advance("fu_4_last_touch")
	if err != nil || next.Code != "rx_1_update" {
		t.Fatalf("expected rx_1_update after fu_4_last_touch, got %v (%v)", next.Code, err)
	}
}
