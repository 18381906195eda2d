// Package repository provides Postgres data access for the follow-up bounded
// context: the per-lead status store, the append-only history ledger, and the
// seeded sequence step catalog.
package repository

import (
	"context"
	"errors"
	"time"

	"followup_backend/internal/followup/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a lead has no follow-up status record.
	ErrNotFound = errors.New("follow-up status not found")
	// ErrVersionConflict is returned when an optimistic-lock check fails.
	ErrVersionConflict = errors.New("follow-up status version conflict")
	// ErrAlreadyEnrolled is returned when a lead already has a status record.
	ErrAlreadyEnrolled = errors.New("lead already enrolled in follow-up")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FollowUpStatus is one lead's position in the outreach lifecycle. The row is
// mutated exclusively through CAS transitions keyed on Version.
type FollowUpStatus struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	CurrentStepCode  string
	Status           domain.Status
	NextFollowUpAt   *time.Time
	LastContactedAt  *time.Time
	ContactCount     int
	ReplyCount       int
	PreferredChannel *domain.Channel
	PausedUntil      *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const statusColumns = `
	id, lead_id, current_step_code, status, next_follow_up_at, last_contacted_at,
	contact_count, reply_count, preferred_channel, paused_until, version,
	created_at, updated_at`

func scanStatus(row pgx.Row) (FollowUpStatus, error) {
	var st FollowUpStatus
	var status string
	var preferred *string
	err := row.Scan(
		&st.ID, &st.LeadID, &st.CurrentStepCode, &status, &st.NextFollowUpAt, &st.LastContactedAt,
		&st.ContactCount, &st.ReplyCount, &preferred, &st.PausedUntil, &st.Version,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return FollowUpStatus{}, err
	}
	st.Status = domain.Status(status)
	if preferred != nil {
		ch := domain.Channel(*preferred)
		st.PreferredChannel = &ch
	}
	return st, nil
}

// GetByLeadID returns the follow-up status record for a lead.
func (r *Repository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (FollowUpStatus, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+statusColumns+`
		FROM lead_follow_up_status WHERE lead_id = $1
	`, leadID)

	st, err := scanStatus(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUpStatus{}, ErrNotFound
	}
	return st, err
}

// CreateParams describes a new enrollment row.
type CreateParams struct {
	LeadID           uuid.UUID
	CurrentStepCode  string
	NextFollowUpAt   time.Time
	PreferredChannel *domain.Channel
}

// Create inserts the enrollment row for a lead. The unique constraint on
// lead_id makes double enrollment impossible.
func (r *Repository) Create(ctx context.Context, params CreateParams) (FollowUpStatus, error) {
	var preferred *string
	if params.PreferredChannel != nil {
		s := string(*params.PreferredChannel)
		preferred = &s
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_follow_up_status (
			lead_id, current_step_code, status, next_follow_up_at, preferred_channel
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lead_id) DO NOTHING
		RETURNING `+statusColumns+`
	`, params.LeadID, params.CurrentStepCode, string(domain.StatusActive), params.NextFollowUpAt, preferred)

	st, err := scanStatus(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUpStatus{}, ErrAlreadyEnrolled
	}
	return st, err
}

// HistoryParams describes the ledger entry appended with a transition.
type HistoryParams struct {
	StepCode         string
	Channel          domain.Channel
	Outcome          domain.Outcome
	MessageSent      *string
	ResponseReceived *string
	ExecutedAt       time.Time
}

// TransitionParams is the full post-state of a CAS transition plus the
// optional history entry recorded with it. Pause/resume transitions carry no
// history; outcome transitions always do.
type TransitionParams struct {
	StatusID        uuid.UUID
	LeadID          uuid.UUID
	ExpectedVersion int64

	CurrentStepCode string
	Status          domain.Status
	NextFollowUpAt  *time.Time
	LastContactedAt *time.Time
	ContactCount    int
	ReplyCount      int
	PausedUntil     *time.Time

	History *HistoryParams
}

// ApplyTransition commits one lifecycle transition atomically: the status row
// update guarded by the version check and, when present, the ledger insert.
// Returns ErrVersionConflict when another transition won the race.
func (r *Repository) ApplyTransition(ctx context.Context, params TransitionParams) (FollowUpStatus, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return FollowUpStatus{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		UPDATE lead_follow_up_status SET
			current_step_code = $1,
			status = $2,
			next_follow_up_at = $3,
			last_contacted_at = $4,
			contact_count = $5,
			reply_count = $6,
			paused_until = $7,
			version = version + 1,
			updated_at = now()
		WHERE id = $8 AND version = $9
		RETURNING `+statusColumns+`
	`,
		params.CurrentStepCode, string(params.Status), params.NextFollowUpAt, params.LastContactedAt,
		params.ContactCount, params.ReplyCount, params.PausedUntil,
		params.StatusID, params.ExpectedVersion,
	)

	st, err := scanStatus(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row gone or version moved; distinguish for the caller.
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM lead_follow_up_status WHERE id = $1)
		`, params.StatusID).Scan(&exists); checkErr != nil {
			return FollowUpStatus{}, checkErr
		}
		if !exists {
			return FollowUpStatus{}, ErrNotFound
		}
		return FollowUpStatus{}, ErrVersionConflict
	}
	if err != nil {
		return FollowUpStatus{}, err
	}

	if params.History != nil {
		h := params.History
		_, err = tx.Exec(ctx, `
			INSERT INTO follow_up_history (
				lead_id, status_record_id, step_code, channel, outcome,
				message_sent, response_received, executed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, params.LeadID, params.StatusID, h.StepCode, string(h.Channel), string(h.Outcome),
			h.MessageSent, h.ResponseReceived, h.ExecutedAt)
		if err != nil {
			return FollowUpStatus{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return FollowUpStatus{}, err
	}
	return st, nil
}

// SetPreferredChannel updates the channel override outside the CAS protocol;
// it does not touch scheduling state.
func (r *Repository) SetPreferredChannel(ctx context.Context, leadID uuid.UUID, channel *domain.Channel) error {
	var preferred *string
	if channel != nil {
		s := string(*channel)
		preferred = &s
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE lead_follow_up_status SET preferred_channel = $1, updated_at = now()
		WHERE lead_id = $2
	`, preferred, leadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
