package domain

// Outcome is the result recorded when a scheduled step is executed.
type Outcome string

const (
	OutcomeSent             Outcome = "sent"
	OutcomeNoAnswer         Outcome = "no_answer"
	OutcomeReplied          Outcome = "replied"
	OutcomeInterested       Outcome = "interested"
	OutcomeNotInterested    Outcome = "not_interested"
	OutcomeWrongNumber      Outcome = "wrong_number"
	OutcomeCallBack         Outcome = "call_back"
	OutcomeMeetingScheduled Outcome = "meeting_scheduled"
)

// Effect classifies what an outcome does to the lead's lifecycle.
type Effect int

const (
	// EffectAdvance moves the lead to the next step in the sequence.
	EffectAdvance Effect = iota
	// EffectReply stops the sequence with a positive signal.
	EffectReply
	// EffectLost stops the sequence with a negative signal.
	EffectLost
)

var outcomeEffects = map[Outcome]Effect{
	OutcomeSent:             EffectAdvance,
	OutcomeNoAnswer:         EffectAdvance,
	OutcomeCallBack:         EffectAdvance,
	OutcomeReplied:          EffectReply,
	OutcomeInterested:       EffectReply,
	OutcomeMeetingScheduled: EffectReply,
	OutcomeNotInterested:    EffectLost,
	OutcomeWrongNumber:      EffectLost,
}

// Known reports whether o is a recognized outcome.
func (o Outcome) Known() bool {
	_, ok := outcomeEffects[o]
	return ok
}

// Effect returns the lifecycle effect of the outcome.
func (o Outcome) Effect() Effect {
	return outcomeEffects[o]
}
