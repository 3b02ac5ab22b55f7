package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/mentor-portal-api/internal/dto"
	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
	"github.com/campushq/mentor-portal-api/pkg/response"
)

type meetingService interface {
	Schedule(ctx context.Context, req dto.ScheduleMeetingRequest, actor *models.JWTClaims) (*models.Meeting, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Meeting, error)
	List(ctx context.Context, query dto.MeetingQuery, actor *models.JWTClaims) ([]models.Meeting, error)
	Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Meeting, error)
	Complete(ctx context.Context, id string, actor *models.JWTClaims) (*models.Meeting, error)
	AddReview(ctx context.Context, id string, req dto.MeetingReviewRequest, actor *models.JWTClaims) (*models.Meeting, error)
}

// MeetingHandler exposes REST endpoints for the meeting registry.
type MeetingHandler struct {
	service meetingService
}

// NewMeetingHandler constructs the handler.
func NewMeetingHandler(service meetingService) *MeetingHandler {
	return &MeetingHandler{service: service}
}

// Schedule godoc
// @Summary Schedule a meeting directly
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleMeetingRequest true "Meeting payload"
// @Success 201 {object} response.Envelope
// @Router /meetings [post]
func (h *MeetingHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ScheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid meeting payload"))
		return
	}
	meeting, err := h.service.Schedule(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, meeting, nil)
}

// List godoc
// @Summary List meetings visible to the caller
// @Tags Meetings
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.MeetingQuery{
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	if raw := c.Query("status"); raw != "" {
		parts := strings.Split(raw, ",")
		statuses := make([]models.MeetingStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.MeetingStatus(part))
		}
		query.Status = statuses
	}
	meetings, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meetings, nil)
}

// Get godoc
// @Summary Get meeting detail
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id} [get]
func (h *MeetingHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	meeting, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}

// Cancel godoc
// @Summary Cancel a scheduled meeting
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id}/cancel [post]
func (h *MeetingHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	meeting, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}

// Complete godoc
// @Summary Mark a scheduled meeting as completed
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id}/complete [post]
func (h *MeetingHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	meeting, err := h.service.Complete(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}

// AddReview godoc
// @Summary Attach a review note to a completed meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param payload body dto.MeetingReviewRequest true "Review note"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id}/review [post]
func (h *MeetingHandler) AddReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.MeetingReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	meeting, err := h.service.AddReview(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meeting, nil)
}
