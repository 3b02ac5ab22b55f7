package models

import "time"

// RequestType enumerates the supported request categories.
type RequestType string

const (
	RequestTypeMentorAssignment RequestType = "mentor-assignment"
	RequestTypeMeeting          RequestType = "meeting-request"
	RequestTypeRoleChange       RequestType = "role-change"
	RequestTypeInternship       RequestType = "internship"
	RequestTypeProject          RequestType = "project"
	RequestTypeDeleteInternship RequestType = "delete-internship"
	RequestTypeDeleteProject    RequestType = "delete-project"
	RequestTypeOther            RequestType = "other"
)

// Valid reports whether the request type is one of the known categories.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeMentorAssignment, RequestTypeMeeting, RequestTypeRoleChange,
		RequestTypeInternship, RequestTypeProject,
		RequestTypeDeleteInternship, RequestTypeDeleteProject, RequestTypeOther:
		return true
	}
	return false
}

// RequestStatus captures the review lifecycle of a request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Request stores a reviewable submission awaiting an approve/reject decision.
// For meeting requests the description carries the encoded scheduling block.
type Request struct {
	ID           string        `db:"id" json:"id"`
	Type         RequestType   `db:"type" json:"type"`
	RequesterID  string        `db:"requester_id" json:"requesterId"`
	TargetUserID *string       `db:"target_user_id" json:"targetUserId,omitempty"`
	Title        string        `db:"title" json:"title"`
	Description  string        `db:"description" json:"description"`
	Status       RequestStatus `db:"status" json:"status"`
	ReviewedBy   *string       `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time    `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNotes  *string       `db:"review_notes" json:"reviewNotes,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	Status      []RequestStatus
	Type        RequestType
	RequesterID string
	TargetID    string
	ReviewerID  string
	Limit       int
	Offset      int
}
