package repository

import (
	"context"
	"time"

	"followup_backend/internal/followup/domain"

	"github.com/google/uuid"
)

// HistoryEntry is one executed (or explicitly recorded) step in the
// append-only ledger. Entries are never updated or deleted.
type HistoryEntry struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	StatusRecordID   uuid.UUID
	StepCode         string
	Channel          domain.Channel
	Outcome          domain.Outcome
	MessageSent      *string
	ResponseReceived *string
	ExecutedAt       time.Time
	CreatedAt        time.Time
}

// ListHistory returns the full ledger for a lead, newest first.
func (r *Repository) ListHistory(ctx context.Context, leadID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, status_record_id, step_code, channel, outcome,
			message_sent, response_received, executed_at, created_at
		FROM follow_up_history
		WHERE lead_id = $1
		ORDER BY executed_at DESC, created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		var channel, outcome string
		if err := rows.Scan(
			&e.ID, &e.LeadID, &e.StatusRecordID, &e.StepCode, &channel, &outcome,
			&e.MessageSent, &e.ResponseReceived, &e.ExecutedAt, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Channel = domain.Channel(channel)
		e.Outcome = domain.Outcome(outcome)
		entries = append(entries, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}

// CountHistory returns the number of ledger entries for a lead.
func (r *Repository) CountHistory(ctx context.Context, leadID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM follow_up_history WHERE lead_id = $1
	`, leadID).Scan(&count)
	return count, err
}
