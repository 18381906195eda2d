package repository

import (
	"context"
	"time"

	"followup_backend/internal/followup/domain"
)

// Candidate is a due (or almost due) follow-up status joined with the lead
// identity needed for ranking output. The join is read-only; lead rows are
// owned by the external lead system.
type Candidate struct {
	FollowUpStatus
	LeadName     string
	LeadCompany  *string
	LeadVertical *string
	LeadPhone    *string
	LeadEmail    *string
}

// ListDue returns schedulable candidates whose next touch has arrived within
// the lookahead window: active rows by next_follow_up_at, plus paused rows
// whose paused_until has passed (they auto-resume at the next transition).
// Pausing clears next_follow_up_at, so the lapsed paused_until serves as the
// due anchor for those rows; consumers see it as the candidate's due time.
// Results are deterministically ordered so identical snapshots rank
// identically.
func (r *Repository) ListDue(ctx context.Context, now time.Time, lookahead time.Duration, limit int) ([]Candidate, error) {
	horizon := now.Add(lookahead)

	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.lead_id, s.current_step_code, s.status,
			COALESCE(s.next_follow_up_at, s.paused_until) AS due_at, s.last_contacted_at,
			s.contact_count, s.reply_count, s.preferred_channel, s.paused_until, s.version,
			s.created_at, s.updated_at,
			l.name, l.company, l.vertical, l.phone, l.email
		FROM lead_follow_up_status s
		JOIN leads l ON l.id = s.lead_id
		WHERE (s.status = 'active' AND s.next_follow_up_at IS NOT NULL AND s.next_follow_up_at <= $1)
			OR (s.status = 'paused' AND s.paused_until IS NOT NULL AND s.paused_until <= $2)
		ORDER BY due_at ASC, s.lead_id ASC
		LIMIT $3
	`, horizon, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]Candidate, 0)
	for rows.Next() {
		var c Candidate
		var status string
		var preferred *string
		if err := rows.Scan(
			&c.ID, &c.LeadID, &c.CurrentStepCode, &status, &c.NextFollowUpAt, &c.LastContactedAt,
			&c.ContactCount, &c.ReplyCount, &preferred, &c.PausedUntil, &c.Version,
			&c.CreatedAt, &c.UpdatedAt,
			&c.LeadName, &c.LeadCompany, &c.LeadVertical, &c.LeadPhone, &c.LeadEmail,
		); err != nil {
			return nil, err
		}
		c.Status = domain.Status(status)
		if preferred != nil {
			ch := domain.Channel(*preferred)
			c.PreferredChannel = &ch
		}
		candidates = append(candidates, c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return candidates, nil
}
