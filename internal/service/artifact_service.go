package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

type artifactStore interface {
	GetByID(ctx context.Context, id string) (*models.Artifact, error)
	List(ctx context.Context, filter models.ArtifactFilter) ([]models.Artifact, error)
}

// ArtifactService exposes the academic artifact registry. Artifacts are
// created and soft-deleted by the approval workflow; this service covers
// reads only.
type ArtifactService struct {
	repo   artifactStore
	logger *zap.Logger
}

// NewArtifactService constructs the service.
func NewArtifactService(repo artifactStore, logger *zap.Logger) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactService{repo: repo, logger: logger}
}

// Get returns an artifact enforcing scope constraints. Soft-deleted artifacts
// stay visible to admins and HODs for audit purposes.
func (s *ArtifactService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Artifact, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	artifact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "artifact not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load artifact")
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		return artifact, nil
	}
	if artifact.StudentID != actor.UserID || artifact.DeletedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "artifact not found")
	}
	return artifact, nil
}

// List returns artifacts visible to the actor.
func (s *ArtifactService) List(ctx context.Context, filter models.ArtifactFilter, actor *models.JWTClaims) ([]models.Artifact, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHOD:
		// full visibility, IncludeDeleted honoured as requested
	default:
		filter.StudentID = actor.UserID
		filter.IncludeDeleted = false
	}
	artifacts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list artifacts")
	}
	return artifacts, nil
}
