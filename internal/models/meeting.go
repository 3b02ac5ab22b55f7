package models

import "time"

// MeetingStatus captures the meeting lifecycle.
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// MeetingType enumerates how a meeting is held.
type MeetingType string

const (
	MeetingTypeInPerson MeetingType = "in-person"
	MeetingTypeOnline   MeetingType = "online"
	MeetingTypePhone    MeetingType = "phone"
)

// Valid reports whether the meeting type is a known value.
func (t MeetingType) Valid() bool {
	switch t {
	case MeetingTypeInPerson, MeetingTypeOnline, MeetingTypePhone:
		return true
	}
	return false
}

// Meeting represents a scheduled mentor-mentee meeting.
type Meeting struct {
	ID              string        `db:"id" json:"id"`
	MentorID        string        `db:"mentor_id" json:"mentorId"`
	MenteeID        string        `db:"mentee_id" json:"menteeId"`
	Title           string        `db:"title" json:"title"`
	Description     string        `db:"description" json:"description"`
	ScheduledAt     time.Time     `db:"scheduled_at" json:"scheduledAt"`
	DurationMinutes int           `db:"duration_minutes" json:"durationMinutes"`
	MeetingType     MeetingType   `db:"meeting_type" json:"meetingType"`
	Location        *string       `db:"location" json:"location,omitempty"`
	Status          MeetingStatus `db:"status" json:"status"`
	ReviewNote      *string       `db:"review_note" json:"reviewNote,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
}

// MeetingFilter constrains meeting listings.
type MeetingFilter struct {
	MentorID string
	MenteeID string
	Status   []MeetingStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
