package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
	"github.com/campushq/mentor-portal-api/pkg/response"
)

type artifactService interface {
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Artifact, error)
	List(ctx context.Context, filter models.ArtifactFilter, actor *models.JWTClaims) ([]models.Artifact, error)
}

// ArtifactHandler exposes read endpoints for internship and project records.
// Creation and deletion run through the request workflow.
type ArtifactHandler struct {
	service artifactService
}

// NewArtifactHandler constructs the handler.
func NewArtifactHandler(service artifactService) *ArtifactHandler {
	return &ArtifactHandler{service: service}
}

// List godoc
// @Summary List artifacts visible to the caller
// @Tags Artifacts
// @Produce json
// @Param kind query string false "internship or project"
// @Param studentId query string false "Student filter (admin/hod only)"
// @Param includeDeleted query bool false "Include soft-deleted rows (admin/hod only)"
// @Success 200 {object} response.Envelope
// @Router /artifacts [get]
func (h *ArtifactHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ArtifactFilter{
		StudentID:      strings.TrimSpace(c.Query("studentId")),
		IncludeDeleted: c.Query("includeDeleted") == "true",
		Limit:          intQuery(c, "limit"),
		Offset:         intQuery(c, "offset"),
	}
	if kind := strings.ToLower(strings.TrimSpace(c.Query("kind"))); kind != "" {
		filter.Kind = models.ArtifactKind(kind)
	}
	artifacts, err := h.service.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifacts, nil)
}

// Get godoc
// @Summary Get artifact detail
// @Tags Artifacts
// @Produce json
// @Param id path string true "Artifact ID"
// @Success 200 {object} response.Envelope
// @Router /artifacts/{id} [get]
func (h *ArtifactHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	artifact, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, artifact, nil)
}
