package repository

import (
	"context"

	"followup_backend/internal/followup/domain"
)

// ListSequenceSteps loads the seeded step templates for catalog construction.
func (r *Repository) ListSequenceSteps(ctx context.Context) ([]domain.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, phase, step_order, days_after_previous, default_channel, message_template
		FROM sequence_steps
		ORDER BY phase, step_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]domain.Step, 0)
	for rows.Next() {
		var step domain.Step
		var phase, channel string
		if err := rows.Scan(&step.Code, &phase, &step.Order, &step.DaysAfterPrevious, &channel, &step.MessageTemplate); err != nil {
			return nil, err
		}
		step.Phase = domain.Phase(phase)
		step.DefaultChannel = domain.Channel(channel)
		steps = append(steps, step)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return steps, nil
}

// UpsertSequenceSteps seeds or refreshes the step templates. Used by the
// seed command; the serving processes only ever read.
func (r *Repository) UpsertSequenceSteps(ctx context.Context, steps []domain.Step) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, step := range steps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sequence_steps (code, phase, step_order, days_after_previous, default_channel, message_template)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (code) DO UPDATE SET
				phase = EXCLUDED.phase,
				step_order = EXCLUDED.step_order,
				days_after_previous = EXCLUDED.days_after_previous,
				default_channel = EXCLUDED.default_channel,
				message_template = EXCLUDED.message_template
		`, step.Code, string(step.Phase), step.Order, step.DaysAfterPrevious, string(step.DefaultChannel), step.MessageTemplate); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
