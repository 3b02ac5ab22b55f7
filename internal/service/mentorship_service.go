package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

type mentorshipStore interface {
	GetByID(ctx context.Context, id string) (*models.Mentorship, error)
	FindActiveByMentee(ctx context.Context, menteeID string) (*models.Mentorship, error)
	List(ctx context.Context, filter models.MentorshipFilter) ([]models.Mentorship, error)
	UpdateStatus(ctx context.Context, id string, next models.MentorshipStatus, allowedCurrent ...models.MentorshipStatus) error
}

// MentorshipService exposes the mentor-mentee relationship registry.
// Relationships are created and activated by the approval workflow; this
// service covers reads and the terminal transitions.
type MentorshipService struct {
	repo   mentorshipStore
	logger *zap.Logger
}

// NewMentorshipService constructs the service.
func NewMentorshipService(repo mentorshipStore, logger *zap.Logger) *MentorshipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MentorshipService{repo: repo, logger: logger}
}

// Get returns a relationship enforcing scope constraints.
func (s *MentorshipService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Mentorship, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	mentorship, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentorship")
	}
	if !s.canView(actor, mentorship) {
		return nil, appErrors.ErrForbidden
	}
	return mentorship, nil
}

// List returns relationships visible to the actor.
func (s *MentorshipService) List(ctx context.Context, filter models.MentorshipFilter, actor *models.JWTClaims) ([]models.Mentorship, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		// full visibility
	case models.RoleFaculty:
		filter.MentorID = actor.UserID
	default:
		filter.MenteeID = actor.UserID
	}
	mentorships, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mentorships")
	}
	return mentorships, nil
}

// ActiveMentor returns the mentee's current active relationship, or NotFound.
func (s *MentorshipService) ActiveMentor(ctx context.Context, menteeID string, actor *models.JWTClaims) (*models.Mentorship, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
	default:
		if actor.UserID != menteeID {
			return nil, appErrors.ErrForbidden
		}
	}
	mentorship, err := s.repo.FindActiveByMentee(ctx, menteeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active mentorship")
	}
	if mentorship == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "mentee has no active mentor")
	}
	return mentorship, nil
}

// Complete marks an active relationship as completed, freeing the mentee's
// active slot for a future assignment.
func (s *MentorshipService) Complete(ctx context.Context, id string, actor *models.JWTClaims) (*models.Mentorship, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	mentorship, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentorship")
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
	case models.RoleFaculty:
		if mentorship.MentorID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, id, models.MentorshipStatusCompleted, models.MentorshipStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only active mentorships can be completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete mentorship")
	}
	mentorship.Status = models.MentorshipStatusCompleted
	s.logger.Info("mentorship completed",
		zap.String("mentorship_id", id),
		zap.String("completed_by", actor.UserID),
		zap.Time("at", time.Now().UTC()))
	return mentorship, nil
}

func (s *MentorshipService) canView(actor *models.JWTClaims, m *models.Mentorship) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		return true
	}
	return m.MentorID == actor.UserID || m.MenteeID == actor.UserID
}
