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
)

// MeetingRepository persists scheduled meetings.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository constructs the repository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, mentor_id, mentee_id, title, description, scheduled_at, duration_minutes, meeting_type, location, status, review_note, created_at, updated_at`

// Create inserts a new meeting row.
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.Status == "" {
		meeting.Status = models.MeetingStatusScheduled
	}
	now := time.Now().UTC()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	meeting.UpdatedAt = now
	const query = `INSERT INTO meetings (` + meetingColumns + `)
	VALUES (:id, :mentor_id, :mentee_id, :title, :description, :scheduled_at, :duration_minutes, :meeting_type, :location, :status, :review_note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, meeting); err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// GetByID fetches a meeting by identifier.
func (r *MeetingRepository) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	const query = `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`
	var meeting models.Meeting
	if err := r.db.GetContext(ctx, &meeting, query, id); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// List returns meetings matching the filter ordered by schedule descending.
func (r *MeetingRepository) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	builder.WriteString(`SELECT ` + meetingColumns + ` FROM meetings`)

	conditions := make([]string, 0, 4)
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
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("scheduled_at <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY scheduled_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

// UpdateStatus performs a guarded transition from scheduled to the given
// terminal status, optionally attaching a review note. Zero affected rows
// surface sql.ErrNoRows so callers can report an invalid transition.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, next models.MeetingStatus, note *string) error {
	setParts := []string{"status = :status", "updated_at = :updated_at"}
	if note != nil {
		setParts = append(setParts, "review_note = :review_note")
	}
	query := fmt.Sprintf(`UPDATE meetings SET %s WHERE id = :id AND status = '%s'`,
		strings.Join(setParts, ", "),
		models.MeetingStatusScheduled,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          id,
		"status":      next,
		"updated_at":  time.Now().UTC(),
		"review_note": note,
	})
	if err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check meeting update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetReviewNote attaches a note to a completed meeting.
func (r *MeetingRepository) SetReviewNote(ctx context.Context, id, note string) error {
	const query = `UPDATE meetings SET review_note = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, note, time.Now().UTC(), models.MeetingStatusCompleted)
	if err != nil {
		return fmt.Errorf("set meeting review note: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check meeting note rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
