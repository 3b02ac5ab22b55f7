package models

import "time"

// ArtifactKind distinguishes the academic artifact families.
type ArtifactKind string

const (
	ArtifactKindInternship ArtifactKind = "internship"
	ArtifactKindProject    ArtifactKind = "project"
)

// Artifact represents a student-owned academic record (internship or project)
// materialized from an approved request. Deletion is soft.
type Artifact struct {
	ID           string       `db:"id" json:"id"`
	Kind         ArtifactKind `db:"kind" json:"kind"`
	StudentID    string       `db:"student_id" json:"studentId"`
	Title        string       `db:"title" json:"title"`
	Organisation string       `db:"organisation" json:"organisation,omitempty"`
	Semester     int          `db:"semester" json:"semester,omitempty"`
	Stipend      int          `db:"stipend" json:"stipend,omitempty"`
	Duration     string       `db:"duration" json:"duration,omitempty"`
	Location     string       `db:"location" json:"location,omitempty"`
	Description  string       `db:"description" json:"description,omitempty"`
	DeletedAt    *time.Time   `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// ArtifactFilter constrains artifact listings.
type ArtifactFilter struct {
	StudentID      string
	Kind           ArtifactKind
	IncludeDeleted bool
	Limit          int
	Offset         int
}
