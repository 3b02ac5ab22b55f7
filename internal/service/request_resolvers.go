package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/mentor-portal-api/internal/dto"
	"github.com/campushq/mentor-portal-api/internal/meetingtext"
	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

// Resolver applies the domain side effect of an approved request. It runs
// before the status flip: a failed resolver leaves the request pending so the
// reviewer can retry or reject.
type Resolver interface {
	Resolve(ctx context.Context, request *models.Request) error
}

// ResolverFunc allows using plain functions as resolvers.
type ResolverFunc func(ctx context.Context, request *models.Request) error

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, request *models.Request) error {
	return f(ctx, request)
}

type resolverMentorshipStore interface {
	Create(ctx context.Context, m *models.Mentorship) error
	Activate(ctx context.Context, id string, approvedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, next models.MentorshipStatus, allowedCurrent ...models.MentorshipStatus) error
}

type resolverMeetingStore interface {
	Create(ctx context.Context, meeting *models.Meeting) error
}

type resolverArtifactStore interface {
	Create(ctx context.Context, artifact *models.Artifact) error
	GetByID(ctx context.Context, id string) (*models.Artifact, error)
	MarkDeleted(ctx context.Context, id string, deletedAt time.Time) error
}

// NewResolverSet wires the per-type resolver table. Role changes and free-form
// requests carry no side effect beyond the status flip and audit trail.
func NewResolverSet(mentorships resolverMentorshipStore, meetings resolverMeetingStore, artifacts resolverArtifactStore, metrics *MetricsService, logger *zap.Logger) map[models.RequestType]Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := ResolverFunc(func(context.Context, *models.Request) error { return nil })
	return map[models.RequestType]Resolver{
		models.RequestTypeMentorAssignment: &mentorAssignmentResolver{store: mentorships, logger: logger},
		models.RequestTypeMeeting:          &meetingRequestResolver{store: meetings, metrics: metrics},
		models.RequestTypeInternship:       &artifactCreateResolver{store: artifacts, kind: models.ArtifactKindInternship},
		models.RequestTypeProject:          &artifactCreateResolver{store: artifacts, kind: models.ArtifactKindProject},
		models.RequestTypeDeleteInternship: &artifactDeleteResolver{store: artifacts, kind: models.ArtifactKindInternship},
		models.RequestTypeDeleteProject:    &artifactDeleteResolver{store: artifacts, kind: models.ArtifactKindProject},
		models.RequestTypeRoleChange:       noop,
		models.RequestTypeOther:            noop,
	}
}

// mentorAssignmentResolver materializes an active mentor-mentee relationship.
// The requester becomes the mentee; the target user becomes the mentor.
type mentorAssignmentResolver struct {
	store  resolverMentorshipStore
	logger *zap.Logger
}

func (r *mentorAssignmentResolver) Resolve(ctx context.Context, request *models.Request) error {
	if request.TargetUserID == nil || *request.TargetUserID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "mentor assignment request has no target mentor")
	}

	mentorship := &models.Mentorship{
		MentorID:    *request.TargetUserID,
		MenteeID:    request.RequesterID,
		Status:      models.MentorshipStatusPending,
		RequestedBy: request.RequesterID,
		RequestedAt: request.CreatedAt,
	}
	if err := r.store.Create(ctx, mentorship); err != nil {
		return err
	}

	if err := r.store.Activate(ctx, mentorship.ID, time.Now().UTC()); err != nil {
		// The relationship row was created above; park it so it cannot
		// shadow a later attempt.
		if cleanupErr := r.store.UpdateStatus(ctx, mentorship.ID, models.MentorshipStatusRejected, models.MentorshipStatusPending); cleanupErr != nil {
			r.logger.Warn("failed to park unactivatable mentorship",
				zap.String("mentorship_id", mentorship.ID),
				zap.Error(cleanupErr))
		}
		return err
	}
	return nil
}

// meetingRequestResolver decodes the scheduling block carried in the request
// description and registers the meeting.
type meetingRequestResolver struct {
	store   resolverMeetingStore
	metrics *MetricsService
}

func (r *meetingRequestResolver) Resolve(ctx context.Context, request *models.Request) error {
	if request.TargetUserID == nil || *request.TargetUserID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "meeting request has no target mentor")
	}

	params := meetingtext.Decode(request.Description)
	scheduledAt, err := params.ScheduledAt()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "meeting request has no usable date and time")
	}

	meeting := &models.Meeting{
		MentorID:        *request.TargetUserID,
		MenteeID:        request.RequesterID,
		Title:           request.Title,
		Description:     params.Purpose,
		ScheduledAt:     scheduledAt,
		DurationMinutes: params.DurationMinutes,
		MeetingType:     params.MeetingType,
		Status:          models.MeetingStatusScheduled,
	}
	if err := r.store.Create(ctx, meeting); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule meeting")
	}
	r.metrics.RecordMeetingScheduled()
	return nil
}

// artifactCreateResolver materializes an internship or project record from the
// JSON payload carried in the request description.
type artifactCreateResolver struct {
	store resolverArtifactStore
	kind  models.ArtifactKind
}

func (r *artifactCreateResolver) Resolve(ctx context.Context, request *models.Request) error {
	var payload dto.ArtifactPayload
	if err := json.Unmarshal([]byte(request.Description), &payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "artifact payload is not valid JSON")
	}
	title := payload.Title
	if title == "" {
		title = request.Title
	}

	artifact := &models.Artifact{
		Kind:         r.kind,
		StudentID:    request.RequesterID,
		Title:        title,
		Organisation: payload.Organisation,
		Semester:     payload.Semester,
		Stipend:      payload.Stipend,
		Duration:     payload.Duration,
		Location:     payload.Location,
		Description:  payload.Description,
	}
	if err := r.store.Create(ctx, artifact); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create artifact")
	}
	return nil
}

// artifactDeleteResolver soft-deletes an artifact after verifying it still
// belongs to the requester and matches the requested kind.
type artifactDeleteResolver struct {
	store resolverArtifactStore
	kind  models.ArtifactKind
}

func (r *artifactDeleteResolver) Resolve(ctx context.Context, request *models.Request) error {
	var payload dto.ArtifactPayload
	if err := json.Unmarshal([]byte(request.Description), &payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "artifact payload is not valid JSON")
	}
	if payload.ArtifactID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "artifactId is required")
	}

	artifact, err := r.store.GetByID(ctx, payload.ArtifactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "artifact not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load artifact")
	}
	if artifact.StudentID != request.RequesterID {
		return appErrors.Clone(appErrors.ErrConflict, "artifact does not belong to the requester")
	}
	if artifact.Kind != r.kind {
		return appErrors.Clone(appErrors.ErrConflict, "artifact kind does not match the request")
	}

	if err := r.store.MarkDeleted(ctx, artifact.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "artifact already deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete artifact")
	}
	return nil
}
