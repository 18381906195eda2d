// Package domain provides core business rules for the follow-up bounded
// context: the sequence step catalog, lifecycle enums, and the outcome policy.
package domain

// Phase is one of the three macro-stages a lead progresses through.
type Phase string

const (
	PhaseFollowUp     Phase = "followup"
	PhaseReactivation Phase = "reactivation"
	PhaseLoop         Phase = "loop"
)

// phasePrecedence orders phases for progression and ranking tie-breaks.
var phasePrecedence = map[Phase]int{
	PhaseFollowUp:     0,
	PhaseReactivation: 1,
	PhaseLoop:         2,
}

// Known reports whether p is a recognized phase.
func (p Phase) Known() bool {
	_, ok := phasePrecedence[p]
	return ok
}

// Precedence returns the phase's position in the lifecycle. Lower sorts first.
func (p Phase) Precedence() int {
	return phasePrecedence[p]
}

// NextPhase returns the phase following p. The loop phase has no successor;
// its single step re-anchors onto itself instead.
func NextPhase(p Phase) (Phase, bool) {
	switch p {
	case PhaseFollowUp:
		return PhaseReactivation, true
	case PhaseReactivation:
		return PhaseLoop, true
	default:
		return "", false
	}
}
