package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/mentor-portal-api/internal/dto"
	"github.com/campushq/mentor-portal-api/internal/models"
	"github.com/campushq/mentor-portal-api/internal/repository"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

type requestStore interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
	UpdateStatus(ctx context.Context, params repository.ReviewParams) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type reviewNotifier interface {
	Notify(n Notification)
}

const requestCachePrefix = "requests:list:"

// RequestService orchestrates the request workflow: submission, listing, and
// the review state machine with its approval side effects.
type RequestService struct {
	repo      requestStore
	audit     auditLogger
	resolvers map[models.RequestType]Resolver
	cache     *CacheService
	metrics   *MetricsService
	notifier  reviewNotifier
	logger    *zap.Logger
}

// RequestServiceOption configures the service.
type RequestServiceOption func(*RequestService)

// WithResolvers sets the approval side-effect table keyed by request type.
func WithResolvers(resolvers map[models.RequestType]Resolver) RequestServiceOption {
	return func(s *RequestService) {
		if s.resolvers == nil {
			s.resolvers = make(map[models.RequestType]Resolver)
		}
		for k, v := range resolvers {
			s.resolvers[k] = v
		}
	}
}

// WithRequestCache attaches the read cache for listings.
func WithRequestCache(cache *CacheService) RequestServiceOption {
	return func(s *RequestService) { s.cache = cache }
}

// WithRequestMetrics attaches workflow counters.
func WithRequestMetrics(metrics *MetricsService) RequestServiceOption {
	return func(s *RequestService) { s.metrics = metrics }
}

// WithRequestNotifier attaches the notification dispatcher.
func WithRequestNotifier(notifier reviewNotifier) RequestServiceOption {
	return func(s *RequestService) { s.notifier = notifier }
}

// NewRequestService constructs the service.
func NewRequestService(repo requestStore, audit auditLogger, logger *zap.Logger, opts ...RequestServiceOption) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RequestService{
		repo:      repo,
		audit:     audit,
		logger:    logger,
		resolvers: make(map[models.RequestType]Resolver),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit validates the payload per request type and stores a pending request.
func (s *RequestService) Submit(ctx context.Context, req dto.SubmitRequest, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported request type: %s", req.Type))
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}

	description, err := buildDescription(req)
	if err != nil {
		return nil, err
	}

	request := &models.Request{
		Type:        req.Type,
		RequesterID: actor.UserID,
		Title:       title,
		Description: description,
		Status:      models.RequestStatusPending,
	}
	if target := strings.TrimSpace(req.TargetUserID); target != "" {
		request.TargetUserID = &target
	}
	if err := requireTarget(req.Type, request.TargetUserID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.metrics.RecordSubmission(request.Type)
	s.invalidateListings(ctx)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRequestSubmit,
		Resource:   string(request.Type),
		ResourceID: &request.ID,
		NewValues:  statusJSON(request.Status),
	})
	return request, nil
}

// Get returns a request enforcing scope constraints: admins and HODs see
// everything, everyone else only what they submitted or are targeted by.
func (s *RequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !s.canView(actor, request) {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// List returns requests visible to the actor, newest first.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		Status: query.Status,
		Type:   query.Type,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		// full visibility
	case models.RoleFaculty:
		filter.TargetID = actor.UserID
	default:
		filter.RequesterID = actor.UserID
	}

	key := requestListCacheKey(filter)
	var cached []models.Request
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}

	if err := s.cache.Set(ctx, key, requests, 0); err != nil {
		s.logger.Debug("request list not cached", zap.Error(err))
	}
	return requests, nil
}

// Review applies the reviewer decision. Approval runs the type's side-effect
// resolver before the status flip, so a failed side effect leaves the request
// pending. The flip itself is guarded: a concurrent review surfaces as an
// invalid transition, never a double apply.
func (s *RequestService) Review(ctx context.Context, id string, req dto.ReviewRequest, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.Decision != dto.DecisionApprove && req.Decision != dto.DecisionReject {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approve or reject")
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	if err := s.authorizeReview(actor, request); err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("request is %s, not pending", request.Status))
	}

	notes := strings.TrimSpace(req.Notes)
	if req.Decision == dto.DecisionReject && notes == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires review notes")
	}

	next := models.RequestStatusRejected
	if req.Decision == dto.DecisionApprove {
		next = models.RequestStatusApproved
		resolver := s.resolvers[request.Type]
		if resolver == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("no resolver registered for request type: %s", request.Type))
		}
		if err := resolver.Resolve(ctx, request); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	params := repository.ReviewParams{
		ID:         request.ID,
		Status:     next,
		ReviewedBy: actor.UserID,
		ReviewedAt: now,
	}
	if notes != "" {
		params.ReviewNotes = &notes
	}
	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}

	oldStatus := request.Status
	request.Status = next
	request.ReviewedBy = &actor.UserID
	request.ReviewedAt = &now
	request.ReviewNotes = params.ReviewNotes
	request.UpdatedAt = now

	s.metrics.RecordReview(request.Type, string(req.Decision))
	s.invalidateListings(ctx)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRequestReview,
		Resource:   string(request.Type),
		ResourceID: &request.ID,
		OldValues:  statusJSON(oldStatus),
		NewValues:  statusJSON(request.Status),
	})
	if s.notifier != nil {
		s.notifier.Notify(Notification{
			RecipientID: request.RequesterID,
			Event:       NotificationEventRequestReviewed,
			RequestID:   request.ID,
			RequestType: request.Type,
			Status:      request.Status,
			Message:     notes,
		})
	}
	return request, nil
}

func (s *RequestService) canView(actor *models.JWTClaims, request *models.Request) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		return true
	}
	if request.RequesterID == actor.UserID {
		return true
	}
	return request.TargetUserID != nil && *request.TargetUserID == actor.UserID
}

// authorizeReview enforces the reviewer policy. Admins and HODs review every
// type; faculty review meeting and mentor-assignment requests aimed at them.
// Nobody reviews their own submission.
func (s *RequestService) authorizeReview(actor *models.JWTClaims, request *models.Request) error {
	if request.RequesterID == actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot review own request")
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		return nil
	case models.RoleFaculty:
		if request.Type != models.RequestTypeMeeting && request.Type != models.RequestTypeMentorAssignment {
			return appErrors.ErrForbidden
		}
		if request.TargetUserID == nil || *request.TargetUserID != actor.UserID {
			return appErrors.ErrForbidden
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

func (s *RequestService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, requestCachePrefix+"*"); err != nil {
		s.logger.Debug("request cache invalidation failed", zap.Error(err))
	}
}

func (s *RequestService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "request-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// buildDescription produces the stored description for the submission. Meeting
// requests encode their structured params; artifact requests carry the JSON
// payload; everything else keeps the free text.
func buildDescription(req dto.SubmitRequest) (string, error) {
	switch req.Type {
	case models.RequestTypeMeeting:
		if req.Meeting == nil {
			return "", appErrors.Clone(appErrors.ErrValidation, "meeting parameters are required")
		}
		return req.Meeting.Normalize().Encode(), nil
	case models.RequestTypeInternship, models.RequestTypeProject:
		if len(req.Artifact) == 0 {
			return "", appErrors.Clone(appErrors.ErrValidation, "artifact payload is required")
		}
		var payload dto.ArtifactPayload
		if err := json.Unmarshal(req.Artifact, &payload); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "artifact payload is not valid JSON")
		}
		return string(req.Artifact), nil
	case models.RequestTypeDeleteInternship, models.RequestTypeDeleteProject:
		if len(req.Artifact) == 0 {
			return "", appErrors.Clone(appErrors.ErrValidation, "artifact payload is required")
		}
		var payload dto.ArtifactPayload
		if err := json.Unmarshal(req.Artifact, &payload); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "artifact payload is not valid JSON")
		}
		if payload.ArtifactID == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "artifactId is required")
		}
		return string(req.Artifact), nil
	default:
		return req.Description, nil
	}
}

// requireTarget enforces the per-type target user requirement.
func requireTarget(t models.RequestType, target *string) error {
	switch t {
	case models.RequestTypeMentorAssignment, models.RequestTypeMeeting:
		if target == nil || *target == "" {
			return appErrors.Clone(appErrors.ErrValidation, "targetUserId is required")
		}
	}
	return nil
}

func requestListCacheKey(filter models.RequestFilter) string {
	statuses := make([]string, len(filter.Status))
	for i, status := range filter.Status {
		statuses[i] = string(status)
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%d:%d",
		requestCachePrefix,
		strings.Join(statuses, ","),
		filter.Type,
		filter.RequesterID,
		filter.TargetID,
		filter.Limit,
		filter.Offset,
	)
}

func statusJSON(status models.RequestStatus) []byte {
	payload, _ := json.Marshal(map[string]string{"status": string(status)})
	return payload
}
