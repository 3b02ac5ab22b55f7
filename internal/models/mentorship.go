package models

import "time"

// MentorshipStatus captures the mentor-mentee relationship lifecycle.
type MentorshipStatus string

const (
	MentorshipStatusPending   MentorshipStatus = "pending"
	MentorshipStatusActive    MentorshipStatus = "active"
	MentorshipStatusCompleted MentorshipStatus = "completed"
	MentorshipStatusRejected  MentorshipStatus = "rejected"
)

// Mentorship represents a mentor-mentee relationship record.
// At most one relationship per mentee may be active at a time.
type Mentorship struct {
	ID          string           `db:"id" json:"id"`
	MentorID    string           `db:"mentor_id" json:"mentorId"`
	MenteeID    string           `db:"mentee_id" json:"menteeId"`
	Status      MentorshipStatus `db:"status" json:"status"`
	RequestedBy string           `db:"requested_by" json:"requestedBy"`
	RequestedAt time.Time        `db:"requested_at" json:"requestedAt"`
	ApprovedAt  *time.Time       `db:"approved_at" json:"approvedAt,omitempty"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
}

// MentorshipFilter constrains relationship listings.
type MentorshipFilter struct {
	MentorID string
	MenteeID string
	Status   []MentorshipStatus
	Limit    int
	Offset   int
}
