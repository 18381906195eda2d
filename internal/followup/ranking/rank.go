// Package ranking turns the raw due-candidate snapshot into an ordered call
// list. Scoring is pure: the same snapshot and the same clock always produce
// the same list.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"followup_backend/internal/followup/domain"
	"followup_backend/internal/followup/repository"

	"github.com/google/uuid"
)

// Weights defines the tunable scoring parameters. The defaults reproduce the
// historically observed ordering; operators adjust them per market via env.
type Weights struct {
	BaseScore     int // neutral starting point for every candidate
	DueTodayScore int // flat score for touches due today
	OverdueBase   int // starting score once a touch is overdue
	OverduePerDay int // added per whole day overdue
	OverdueCap    int // overdue score ceiling
	UpcomingFloor int // lowest score for not-yet-due touches
	FollowUpBonus int // added while the lead is still in the followup phase
	DefaultLimit  int // list length when the caller does not ask for one
}

// DefaultWeights mirrors the env defaults in platform/config.
func DefaultWeights() Weights {
	return Weights{
		BaseScore:     50,
		DueTodayScore: 65,
		OverdueBase:   70,
		OverduePerDay: 2,
		OverdueCap:    90,
		UpcomingFloor: 30,
		FollowUpBonus: 10,
		DefaultLimit:  10,
	}
}

// stronglyOverdueDays is where the urgency label escalates.
const stronglyOverdueDays = 7

// Action is one entry of the prioritized call list.
type Action struct {
	LeadID         uuid.UUID       `json:"leadId"`
	LeadName       string          `json:"leadName"`
	LeadCompany    *string         `json:"leadCompany,omitempty"`
	LeadVertical   *string         `json:"leadVertical,omitempty"`
	StepCode       string          `json:"stepCode"`
	Phase          domain.Phase    `json:"phase"`
	Channel        domain.Channel  `json:"channel"`
	MessageDraft   string          `json:"messageDraft"`
	Score          int             `json:"score"`
	DaysOverdue    int             `json:"daysOverdue"`
	UrgencyLabel   string          `json:"urgencyLabel"`
	Reason         string          `json:"reason"`
	NextFollowUpAt *time.Time      `json:"nextFollowUpAt,omitempty"`
	ContactCount   int             `json:"contactCount"`
	ReplyCount     int             `json:"replyCount"`
}

// Rank scores, orders and truncates the candidate snapshot. Candidates whose
// step code is missing from the catalog are skipped rather than failing the
// whole list; the scheduler guards the reference, so a miss means a stale
// snapshot.
func Rank(candidates []repository.Candidate, catalog *domain.Catalog, now time.Time, limit int, w Weights) []Action {
	if limit <= 0 {
		limit = w.DefaultLimit
	}

	actions := make([]Action, 0, len(candidates))
	for _, c := range candidates {
		step, ok := catalog.Step(c.CurrentStepCode)
		if !ok {
			continue
		}
		if c.NextFollowUpAt == nil {
			continue
		}

		days := daysOverdue(*c.NextFollowUpAt, now)
		score := scoreFor(days, step.Phase, w)
		channel := step.DefaultChannel
		if c.PreferredChannel != nil {
			channel = *c.PreferredChannel
		}

		actions = append(actions, Action{
			LeadID:         c.LeadID,
			LeadName:       c.LeadName,
			LeadCompany:    c.LeadCompany,
			LeadVertical:   c.LeadVertical,
			StepCode:       step.Code,
			Phase:          step.Phase,
			Channel:        channel,
			MessageDraft:   step.MessageTemplate,
			Score:          score,
			DaysOverdue:    days,
			UrgencyLabel:   urgencyLabel(days, c.ReplyCount),
			Reason:         reasonFor(days, step, c.ContactCount, c.ReplyCount),
			NextFollowUpAt: c.NextFollowUpAt,
			ContactCount:   c.ContactCount,
			ReplyCount:     c.ReplyCount,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		aOver, bOver := a.DaysOverdue > 0, b.DaysOverdue > 0
		if aOver != bOver {
			return aOver
		}
		if a.Phase != b.Phase {
			return a.Phase.Precedence() < b.Phase.Precedence()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.NextFollowUpAt.Equal(*b.NextFollowUpAt) {
			return a.NextFollowUpAt.Before(*b.NextFollowUpAt)
		}
		return a.LeadID.String() < b.LeadID.String()
	})

	if len(actions) > limit {
		actions = actions[:limit]
	}
	return actions
}

// daysOverdue counts whole calendar days (UTC) between the due date and now.
// Positive means overdue, zero means due today, negative means upcoming.
func daysOverdue(due, now time.Time) int {
	d := startOfDay(due)
	n := startOfDay(now)
	return int(n.Sub(d).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func scoreFor(days int, phase domain.Phase, w Weights) int {
	var score int
	switch {
	case days > 0:
		score = w.OverdueBase + w.OverduePerDay*days
		if score > w.OverdueCap {
			score = w.OverdueCap
		}
	case days == 0:
		score = w.DueTodayScore
	default:
		score = w.BaseScore + days // days is negative here
		if score < w.UpcomingFloor {
			score = w.UpcomingFloor
		}
	}

	if phase == domain.PhaseFollowUp {
		score += w.FollowUpBonus
	}
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// urgencyLabel picks the German list label. Leads that have replied before
// never escalate past "überfällig"; a warm lead does not need alarm wording.
func urgencyLabel(days, replyCount int) string {
	switch {
	case days >= stronglyOverdueDays && replyCount == 0:
		return "stark überfällig"
	case days > 0:
		return "überfällig"
	case days == 0:
		return "heute fällig"
	default:
		return "anstehend"
	}
}

// reasonFor assembles the list line from the overdue duration, the phase and
// the contact history of the lead.
func reasonFor(days int, step domain.Step, contactCount, replyCount int) string {
	var due string
	switch {
	case days == 1:
		due = fmt.Sprintf("Schritt %s ist seit 1 Tag fällig", step.Code)
	case days > 1:
		due = fmt.Sprintf("Schritt %s ist seit %d Tagen fällig", step.Code, days)
	case days == 0:
		due = fmt.Sprintf("Schritt %s ist heute fällig", step.Code)
	default:
		due = fmt.Sprintf("Schritt %s ist in %d Tagen fällig", step.Code, -days)
	}

	return fmt.Sprintf("%s (%s, %s, %s)", due, phaseLabel(step.Phase),
		countNoun(contactCount, "Kontakt", "Kontakte"), countNoun(replyCount, "Antwort", "Antworten"))
}

func phaseLabel(p domain.Phase) string {
	switch p {
	case domain.PhaseFollowUp:
		return "Follow-up-Phase"
	case domain.PhaseReactivation:
		return "Reaktivierungsphase"
	default:
		return "Dauerschleife"
	}
}

func countNoun(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
