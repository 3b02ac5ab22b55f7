package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

// MentorshipRepository persists mentor-mentee relationships and owns the
// single-active-mentor invariant at the storage level.
type MentorshipRepository struct {
	db *sqlx.DB
}

// NewMentorshipRepository constructs the repository.
func NewMentorshipRepository(db *sqlx.DB) *MentorshipRepository {
	return &MentorshipRepository{db: db}
}

const mentorshipColumns = `id, mentor_id, mentee_id, status, requested_by, requested_at, approved_at, notes`

// Create inserts a new relationship row. It refuses to create one when the
// mentee already has an active relationship.
func (r *MentorshipRepository) Create(ctx context.Context, m *models.Mentorship) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = models.MentorshipStatusPending
	}
	if m.RequestedAt.IsZero() {
		m.RequestedAt = time.Now().UTC()
	}

	active, err := r.FindActiveByMentee(ctx, m.MenteeID)
	if err != nil {
		return err
	}
	if active != nil {
		return appErrors.Clone(appErrors.ErrConflict, "mentee already has an active mentor")
	}

	const query = `INSERT INTO mentorships (` + mentorshipColumns + `)
	VALUES (:id, :mentor_id, :mentee_id, :status, :requested_by, :requested_at, :approved_at, :notes)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create mentorship: %w", err)
	}
	return nil
}

// GetByID fetches a relationship by identifier.
func (r *MentorshipRepository) GetByID(ctx context.Context, id string) (*models.Mentorship, error) {
	const query = `SELECT ` + mentorshipColumns + ` FROM mentorships WHERE id = $1`
	var m models.Mentorship
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindActiveByMentee returns the mentee's active relationship, or nil.
func (r *MentorshipRepository) FindActiveByMentee(ctx context.Context, menteeID string) (*models.Mentorship, error) {
	const query = `SELECT ` + mentorshipColumns + ` FROM mentorships WHERE mentee_id = $1 AND status = $2 LIMIT 1`
	var m models.Mentorship
	if err := r.db.GetContext(ctx, &m, query, menteeID, models.MentorshipStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active mentorship: %w", err)
	}
	return &m, nil
}

// List returns relationships matching the filter, newest first.
func (r *MentorshipRepository) List(ctx context.Context, filter models.MentorshipFilter) ([]models.Mentorship, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + mentorshipColumns + ` FROM mentorships`)

	conditions := make([]string, 0, 3)
	if filter.MentorID != "" {
		args = append(args, filter.MentorID)
		conditions = append(conditions, fmt.Sprintf("mentor_id = $%d", len(args)))
	}
	if filter.MenteeID != "" {
		args = append(args, filter.MenteeID)
		conditions = append(conditions, fmt.Sprintf("mentee_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY requested_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var mentorships []models.Mentorship
	if err := r.db.SelectContext(ctx, &mentorships, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list mentorships: %w", err)
	}
	return mentorships, nil
}

// Activate flips a pending relationship to active inside a transaction. The
// mentee's active slot is locked and re-checked at this point because time
// passes between request submission and review: two approvals racing for the
// same mentee must not both succeed.
func (r *MentorshipRepository) Activate(ctx context.Context, id string, approvedAt time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mentorship activation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var m models.Mentorship
	const selectQuery = `SELECT ` + mentorshipColumns + ` FROM mentorships WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &m, selectQuery, id); err != nil {
		return err
	}
	if m.Status != models.MentorshipStatusPending {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("mentorship is %s, not pending", m.Status))
	}

	var activeID string
	const conflictQuery = `SELECT id FROM mentorships WHERE mentee_id = $1 AND status = $2 AND id <> $3 LIMIT 1 FOR UPDATE`
	if err = tx.GetContext(ctx, &activeID, conflictQuery, m.MenteeID, models.MentorshipStatusActive, id); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("check active mentorship: %w", err)
	}
	if activeID != "" {
		err = appErrors.Clone(appErrors.ErrConflict, "mentee already has an active mentor")
		return err
	}

	const updateQuery = `UPDATE mentorships SET status = $2, approved_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateQuery, id, models.MentorshipStatusActive, approvedAt); err != nil {
		return fmt.Errorf("activate mentorship: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit mentorship activation: %w", err)
	}
	return nil
}

// UpdateStatus performs a guarded terminal transition. The allowed current
// statuses are embedded in the WHERE clause so an illegal transition affects
// zero rows and surfaces sql.ErrNoRows.
func (r *MentorshipRepository) UpdateStatus(ctx context.Context, id string, next models.MentorshipStatus, allowedCurrent ...models.MentorshipStatus) error {
	if len(allowedCurrent) == 0 {
		return fmt.Errorf("update mentorship status: no allowed current statuses")
	}
	args := []interface{}{id, next}
	placeholders := make([]string, len(allowedCurrent))
	for i, status := range allowedCurrent {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`UPDATE mentorships SET status = $2 WHERE id = $1 AND status IN (%s)`, strings.Join(placeholders, ","))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update mentorship status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check mentorship update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
