package domain

import "testing"

func TestOutcomeEffects(t *testing.T) {
	cases := []struct {
		outcome Outcome
		effect  Effect
	}{
		{OutcomeSent, EffectAdvance},
		{OutcomeNoAnswer, EffectAdvance},
		{OutcomeCallBack, EffectAdvance},
		{OutcomeReplied, EffectReply},
		{OutcomeInterested, EffectReply},
		{OutcomeMeetingScheduled, EffectReply},
		{OutcomeNotInterested, EffectLost},
		{OutcomeWrongNumber, EffectLost},
	}

	for _, tc := range cases {
		if !tc.outcome.Known() {
			t.Errorf("outcome %s should be known", tc.outcome)
		}
		if got := tc.outcome.Effect(); got != tc.effect {
			t.Errorf("outcome %s: effect %v, want %v", tc.outcome, got, tc.effect)
		}
	}

	if Outcome("ghosted").Known() {
		t.Errorf("unknown outcome must not validate")
	}
}

func TestStatusSchedulable(t *testing.T) {
	if !StatusActive.Schedulable() || !StatusPaused.Schedulable() {
		t.Fatalf("active and paused must be schedulable")
	}
	for _, s := range []Status{StatusReplied, StatusConverted, StatusLost} {
		if s.Schedulable() {
			t.Errorf("status %s must not be schedulable", s)
		}
	}
	if !StatusConverted.Terminal() || !StatusLost.Terminal() {
		t.Fatalf("converted and lost are terminal")
	}
	if StatusReplied.Terminal() {
		t.Fatalf("replied is soft-stopped, not hard-terminal")
	}
}
