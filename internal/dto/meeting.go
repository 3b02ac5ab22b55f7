package dto

import "github.com/campushq/mentor-portal-api/internal/models"

// ScheduleMeetingRequest is the payload for direct faculty/HOD scheduling,
// bypassing the request workflow but funneling through the same registry.
type ScheduleMeetingRequest struct {
	MenteeID        string             `json:"menteeId"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Date            string             `json:"date"`
	Time            string             `json:"time"`
	DurationMinutes int                `json:"durationMinutes"`
	MeetingType     models.MeetingType `json:"meetingType"`
	Location        string             `json:"location"`
}

// MeetingReviewRequest attaches a mentor/HOD note to a completed meeting.
type MeetingReviewRequest struct {
	Note string `json:"note"`
}

// MeetingQuery mirrors supported meeting listing filters.
type MeetingQuery struct {
	Status []models.MeetingStatus
	Limit  int
	Offset int
}
