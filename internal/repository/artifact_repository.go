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

// ArtifactRepository persists student academic artifacts (internships and
// projects). Deletion is soft so approved history stays auditable.
type ArtifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository constructs the repository.
func NewArtifactRepository(db *sqlx.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

const artifactColumns = `id, kind, student_id, title, organisation, semester, stipend, duration, location, description, deleted_at, created_at, updated_at`

// Create inserts a new artifact row.
func (r *ArtifactRepository) Create(ctx context.Context, artifact *models.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = now
	}
	artifact.UpdatedAt = now
	const query = `INSERT INTO artifacts (` + artifactColumns + `)
	VALUES (:id, :kind, :student_id, :title, :organisation, :semester, :stipend, :duration, :location, :description, :deleted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, artifact); err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	return nil
}

// GetByID fetches an artifact by identifier, including soft-deleted rows.
func (r *ArtifactRepository) GetByID(ctx context.Context, id string) (*models.Artifact, error) {
	const query = `SELECT ` + artifactColumns + ` FROM artifacts WHERE id = $1`
	var artifact models.Artifact
	if err := r.db.GetContext(ctx, &artifact, query, id); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// List returns artifacts matching the filter, newest first.
func (r *ArtifactRepository) List(ctx context.Context, filter models.ArtifactFilter) ([]models.Artifact, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(`SELECT ` + artifactColumns + ` FROM artifacts`)

	conditions := make([]string, 0, 3)
	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var artifacts []models.Artifact
	if err := r.db.SelectContext(ctx, &artifacts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return artifacts, nil
}

// MarkDeleted soft-deletes an artifact. Already-deleted rows affect zero rows
// and surface sql.ErrNoRows.
func (r *ArtifactRepository) MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	const query = `UPDATE artifacts SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("mark artifact deleted: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check artifact delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
