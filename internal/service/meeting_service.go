package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campushq/mentor-portal-api/internal/dto"
	"github.com/campushq/mentor-portal-api/internal/meetingtext"
	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

type meetingStore interface {
	Create(ctx context.Context, meeting *models.Meeting) error
	GetByID(ctx context.Context, id string) (*models.Meeting, error)
	List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, error)
	UpdateStatus(ctx context.Context, id string, next models.MeetingStatus, note *string) error
	SetReviewNote(ctx context.Context, id, note string) error
}

const meetingCachePrefix = "meetings:list:"

// MeetingService owns the meeting registry. Meetings enter either through the
// approval workflow or through direct scheduling by faculty; both paths share
// the same store and invariants.
type MeetingService struct {
	repo     meetingStore
	audit    auditLogger
	cache    *CacheService
	metrics  *MetricsService
	notifier reviewNotifier
	logger   *zap.Logger
}

// MeetingServiceOption configures the service.
type MeetingServiceOption func(*MeetingService)

// WithMeetingCache attaches the read cache for listings.
func WithMeetingCache(cache *CacheService) MeetingServiceOption {
	return func(s *MeetingService) { s.cache = cache }
}

// WithMeetingMetrics attaches scheduling counters.
func WithMeetingMetrics(metrics *MetricsService) MeetingServiceOption {
	return func(s *MeetingService) { s.metrics = metrics }
}

// WithMeetingNotifier attaches the notification dispatcher.
func WithMeetingNotifier(notifier reviewNotifier) MeetingServiceOption {
	return func(s *MeetingService) { s.notifier = notifier }
}

// NewMeetingService constructs the service.
func NewMeetingService(repo meetingStore, audit auditLogger, logger *zap.Logger, opts ...MeetingServiceOption) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MeetingService{repo: repo, audit: audit, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Schedule registers a meeting directly, outside the approval workflow. The
// acting faculty member becomes the mentor. The date and time must combine
// into a parseable timestamp; there is no fallback to the current time.
func (s *MeetingService) Schedule(ctx context.Context, req dto.ScheduleMeetingRequest, actor *models.JWTClaims) (*models.Meeting, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleFaculty, models.RoleHOD, models.RoleAdmin:
	default:
		return nil, appErrors.ErrForbidden
	}
	if strings.TrimSpace(req.MenteeID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "menteeId is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}

	params := meetingtext.Params{
		PreferredDate:   req.Date,
		PreferredTime:   req.Time,
		DurationMinutes: req.DurationMinutes,
		MeetingType:     req.MeetingType,
	}.Normalize()
	scheduledAt, err := params.ScheduledAt()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "meeting date and time are invalid")
	}

	meeting := &models.Meeting{
		MentorID:        actor.UserID,
		MenteeID:        strings.TrimSpace(req.MenteeID),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		ScheduledAt:     scheduledAt,
		DurationMinutes: params.DurationMinutes,
		MeetingType:     params.MeetingType,
		Status:          models.MeetingStatusScheduled,
	}
	if location := strings.TrimSpace(req.Location); location != "" {
		meeting.Location = &location
	}
	if err := s.repo.Create(ctx, meeting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule meeting")
	}

	s.metrics.RecordMeetingScheduled()
	s.invalidateListings(ctx)
	if s.notifier != nil {
		s.notifier.Notify(Notification{
			RecipientID: meeting.MenteeID,
			Event:       NotificationEventMeetingCreated,
			Message:     meeting.Title,
		})
	}
	return meeting, nil
}

// Get returns a meeting enforcing scope constraints.
func (s *MeetingService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Meeting, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	meeting, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meeting")
	}
	if !s.canView(actor, meeting) {
		return nil, appErrors.ErrForbidden
	}
	return meeting, nil
}

// List returns meetings visible to the actor, newest schedule first.
func (s *MeetingService) List(ctx context.Context, query dto.MeetingQuery, actor *models.JWTClaims) ([]models.Meeting, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.MeetingFilter{
		Status: query.Status,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		// full visibility
	case models.RoleFaculty:
		filter.MentorID = actor.UserID
	default:
		filter.MenteeID = actor.UserID
	}

	key := meetingListCacheKey(filter)
	var cached []models.Meeting
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	meetings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}

	if err := s.cache.Set(ctx, key, meetings, 0); err != nil {
		s.logger.Debug("meeting list not cached", zap.Error(err))
	}
	return meetings, nil
}

// Cancel transitions a scheduled meeting to cancelled.
func (s *MeetingService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Meeting, error) {
	return s.transition(ctx, id, models.MeetingStatusCancelled, actor)
}

// Complete transitions a scheduled meeting to completed.
func (s *MeetingService) Complete(ctx context.Context, id string, actor *models.JWTClaims) (*models.Meeting, error) {
	return s.transition(ctx, id, models.MeetingStatusCompleted, actor)
}

// AddReview attaches a mentor note to a completed meeting.
func (s *MeetingService) AddReview(ctx context.Context, id string, req dto.MeetingReviewRequest, actor *models.JWTClaims) (*models.Meeting, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note is required")
	}
	meeting, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(actor, meeting); err != nil {
		return nil, err
	}

	if err := s.repo.SetReviewNote(ctx, id, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only completed meetings can be reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save meeting review")
	}
	meeting.ReviewNote = &note

	s.invalidateListings(ctx)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionMeetingReview,
		Resource:   "meeting",
		ResourceID: &meeting.ID,
	})
	return meeting, nil
}

func (s *MeetingService) transition(ctx context.Context, id string, next models.MeetingStatus, actor *models.JWTClaims) (*models.Meeting, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	meeting, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(actor, meeting); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, next, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "meeting is not in a scheduled state")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update meeting")
	}
	meeting.Status = next

	s.invalidateListings(ctx)
	return meeting, nil
}

// authorizeMutation restricts state changes to the mentor, HOD, or admin.
func (s *MeetingService) authorizeMutation(actor *models.JWTClaims, meeting *models.Meeting) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		return nil
	case models.RoleFaculty:
		if meeting.MentorID == actor.UserID {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

func (s *MeetingService) canView(actor *models.JWTClaims, meeting *models.Meeting) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		return true
	}
	return meeting.MentorID == actor.UserID || meeting.MenteeID == actor.UserID
}

func (s *MeetingService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, meetingCachePrefix+"*"); err != nil {
		s.logger.Debug("meeting cache invalidation failed", zap.Error(err))
	}
}

func (s *MeetingService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "meeting-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func meetingListCacheKey(filter models.MeetingFilter) string {
	statuses := make([]string, len(filter.Status))
	for i, status := range filter.Status {
		statuses[i] = string(status)
	}
	return fmt.Sprintf("%s%s:%s:%s:%d:%d",
		meetingCachePrefix,
		strings.Join(statuses, ","),
		filter.MentorID,
		filter.MenteeID,
		filter.Limit,
		filter.Offset)
}
