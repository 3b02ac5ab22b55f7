package dto

import (
	"encoding/json"

	"github.com/campushq/mentor-portal-api/internal/meetingtext"
	"github.com/campushq/mentor-portal-api/internal/models"
)

// SubmitRequest is the payload for creating a new request of any type.
// Meeting requests carry structured params instead of a plain description;
// artifact requests carry the artifact payload as raw JSON.
type SubmitRequest struct {
	Type         models.RequestType  `json:"type"`
	TargetUserID string              `json:"targetUserId"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Meeting      *meetingtext.Params `json:"meeting,omitempty"`
	Artifact     json.RawMessage     `json:"artifact,omitempty"`
}

// ReviewDecision enumerates reviewer outcomes.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// ReviewRequest captures the reviewer decision and notes.
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision"`
	Notes    string         `json:"notes"`
}

// RequestQuery mirrors supported listing filters.
type RequestQuery struct {
	Status []models.RequestStatus
	Type   models.RequestType
	Limit  int
	Offset int
}

// ArtifactPayload is the structured body carried by internship/project
// creation requests and referenced by delete-* requests.
type ArtifactPayload struct {
	ArtifactID   string `json:"artifactId,omitempty"`
	Title        string `json:"title"`
	Organisation string `json:"organisation"`
	Semester     int    `json:"semester"`
	Stipend      int    `json:"stipend"`
	Duration     string `json:"duration"`
	Location     string `json:"location"`
	Description  string `json:"description"`
}
