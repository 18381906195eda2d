package domain

import (
	"fmt"
	"sort"

	"followup_backend/platform/apperr"
)

// Step is one point in the outreach sequence. Steps are immutable template
// data, seeded once and validated at startup.
type Step struct {
	Code              string
	Phase             Phase
	Order             int
	DaysAfterPrevious int
	DefaultChannel    Channel
	MessageTemplate   string
}

// Catalog is the validated set of sequence steps. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	steps   map[string]Step
	byPhase map[Phase][]Step
}

// NewCatalog validates the step set and builds lookup indexes. Any violation
// is a template integrity error: the engine must refuse to serve scheduling
// or ranking requests on a broken catalog.
func NewCatalog(steps []Step) (*Catalog, error) {
	c := &Catalog{
		steps:   make(map[string]Step, len(steps)),
		byPhase: make(map[Phase][]Step),
	}

	for _, step := range steps {
		if step.Code == "" {
			return nil, apperr.TemplateIntegrity("sequence step with empty code")
		}
		if !step.Phase.Known() {
			return nil, apperr.TemplateIntegrity(fmt.Sprintf("step %s: unknown phase %q", step.Code, step.Phase))
		}
		if !step.DefaultChannel.Known() {
			return nil, apperr.TemplateIntegrity(fmt.Sprintf("step %s: unknown channel %q", step.Code, step.DefaultChannel))
		}
		if step.MessageTemplate == "" {
			return nil, apperr.TemplateIntegrity(fmt.Sprintf("step %s: empty message template", step.Code))
		}
		if step.DaysAfterPrevious < 0 {
			return nil, apperr.TemplateIntegrity(fmt.Sprintf("step %s: negative day offset", step.Code))
		}
		if _, dup := c.steps[step.Code]; dup {
			return nil, apperr.TemplateIntegrity(fmt.Sprintf("duplicate step code %s", step.Code))
		}
		c.steps[step.Code] = step
		c.byPhase[step.Phase] = append(c.byPhase[step.Phase], step)
	}

	for _, phase := range []Phase{PhaseFollowUp, PhaseReactivation, PhaseLoop} {
		phaseSteps := c.byPhase[phase]
		if len(phaseSteps) == 0 {
			return nil, apperr.TemplateIntegrity(fmt.Sprintf("phase %s has no steps", phase))
		}
		sort.Slice(phaseSteps, func(i, j int) bool { return phaseSteps[i].Order < phaseSteps[j].Order })
		for i, step := range phaseSteps {
			if step.Order != i {
				return nil, apperr.TemplateIntegrity(fmt.Sprintf("phase %s has an order gap at step %s", phase, step.Code))
			}
		}
		c.byPhase[phase] = phaseSteps
	}

	// The loop phase is a single self-rescheduling check-in step.
	if len(c.byPhase[PhaseLoop]) != 1 {
		return nil, apperr.TemplateIntegrity("loop phase must contain exactly one step")
	}

	return c, nil
}

// Step returns the step with the given code.
func (c *Catalog) Step(code string) (Step, bool) {
	s, ok := c.steps[code]
	return s, ok
}

// First returns the entry step of a phase.
func (c *Catalog) First(phase Phase) (Step, bool) {
	phaseSteps := c.byPhase[phase]
	if len(phaseSteps) == 0 {
		return Step{}, false
	}
	return phaseSteps[0], true
}

// Steps returns all steps in phase order, then step order.
func (c *Catalog) Steps() []Step {
	out := make([]Step, 0, len(c.steps))
	for _, phase := range []Phase{PhaseFollowUp, PhaseReactivation, PhaseLoop} {
		out = append(out, c.byPhase[phase]...)
	}
	return out
}

// Advance resolves the step a lead lands on after completing currentCode with
// a progressing outcome: the next order within the same phase, the first step
// of the next phase at a phase boundary, or the same step again within loop.
func (c *Catalog) Advance(currentCode string) (Step, error) {
	current, ok := c.steps[currentCode]
	if !ok {
		return Step{}, apperr.TemplateIntegrity(fmt.Sprintf("current step %s not in catalog", currentCode))
	}

	if current.Phase == PhaseLoop {
		return current, nil
	}

	phaseSteps := c.byPhase[current.Phase]
	if current.Order+1 < len(phaseSteps) {
		return phaseSteps[current.Order+1], nil
	}

	nextPhase, ok := NextPhase(current.Phase)
	if !ok {
		return current, nil
	}
	next, ok := c.First(nextPhase)
	if !ok {
		return Step{}, apperr.TemplateIntegrity(fmt.Sprintf("phase %s has no entry step", nextPhase))
	}
	return next, nil
}
