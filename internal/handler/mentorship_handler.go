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

type mentorshipService interface {
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Mentorship, error)
	List(ctx context.Context, filter models.MentorshipFilter, actor *models.JWTClaims) ([]models.Mentorship, error)
	ActiveMentor(ctx context.Context, menteeID string, actor *models.JWTClaims) (*models.Mentorship, error)
	Complete(ctx context.Context, id string, actor *models.JWTClaims) (*models.Mentorship, error)
}

// MentorshipHandler exposes REST endpoints for the relationship registry.
type MentorshipHandler struct {
	service mentorshipService
}

// NewMentorshipHandler constructs the handler.
func NewMentorshipHandler(service mentorshipService) *MentorshipHandler {
	return &MentorshipHandler{service: service}
}

// List godoc
// @Summary List mentorships visible to the caller
// @Tags Mentorships
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /mentorships [get]
func (h *MentorshipHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.MentorshipFilter{
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	if raw := c.Query("status"); raw != "" {
		parts := strings.Split(raw, ",")
		statuses := make([]models.MentorshipStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.MentorshipStatus(part))
		}
		filter.Status = statuses
	}
	mentorships, err := h.service.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentorships, nil)
}

// Get godoc
// @Summary Get mentorship detail
// @Tags Mentorships
// @Produce json
// @Param id path string true "Mentorship ID"
// @Success 200 {object} response.Envelope
// @Router /mentorships/{id} [get]
func (h *MentorshipHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	mentorship, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentorship, nil)
}

// ActiveMentor godoc
// @Summary Get the mentee's active mentor relationship
// @Tags Mentorships
// @Produce json
// @Param menteeId path string true "Mentee user ID"
// @Success 200 {object} response.Envelope
// @Router /mentorships/active/{menteeId} [get]
func (h *MentorshipHandler) ActiveMentor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	mentorship, err := h.service.ActiveMentor(c.Request.Context(), c.Param("menteeId"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentorship, nil)
}

// Complete godoc
// @Summary Mark an active mentorship as completed
// @Tags Mentorships
// @Produce json
// @Param id path string true "Mentorship ID"
// @Success 200 {object} response.Envelope
// @Router /mentorships/{id}/complete [post]
func (h *MentorshipHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	mentorship, err := h.service.Complete(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentorship, nil)
}
