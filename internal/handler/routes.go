package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushq/mentor-portal-api/internal/middleware"
	"github.com/campushq/mentor-portal-api/internal/models"
	"github.com/campushq/mentor-portal-api/internal/repository"
	"github.com/campushq/mentor-portal-api/internal/service"
)

// Registry bundles the handlers and cross-cutting dependencies needed to
// mount the API surface.
type Registry struct {
	Auth        *AuthHandler
	Requests    *RequestHandler
	Meetings    *MeetingHandler
	Mentorships *MentorshipHandler
	Artifacts   *ArtifactHandler

	AuthService *service.AuthService
	Users       *repository.UserRepository
	Logger      *zap.Logger
}

// RegisterRoutes mounts all API routes under the provided group. Route-level
// RBAC is coarse; services apply per-record scoping on top.
func (r *Registry) RegisterRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", r.Auth.Login)
		auth.POST("/refresh", r.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(r.AuthService), r.Auth.Logout)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(r.AuthService))

	requests := authed.Group("/requests")
	{
		requests.POST("", r.Requests.Submit)
		requests.GET("", r.Requests.List)
		requests.GET("/:id", r.Requests.Get)
		requests.POST("/:id/review",
			middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleFaculty),
			r.Requests.Review)
	}

	meetings := authed.Group("/meetings")
	{
		meetings.POST("",
			middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleFaculty),
			middleware.Audit(r.Users, r.Logger, models.AuditActionMeetingCreate, "meeting"),
			r.Meetings.Schedule)
		meetings.GET("", r.Meetings.List)
		meetings.GET("/:id", r.Meetings.Get)
		meetings.POST("/:id/cancel", r.Meetings.Cancel)
		meetings.POST("/:id/complete", r.Meetings.Complete)
		meetings.POST("/:id/review", r.Meetings.AddReview)
	}

	mentorships := authed.Group("/mentorships")
	{
		mentorships.GET("", r.Mentorships.List)
		mentorships.GET("/active/:menteeId", r.Mentorships.ActiveMentor)
		mentorships.GET("/:id", r.Mentorships.Get)
		mentorships.POST("/:id/complete",
			middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleFaculty),
			r.Mentorships.Complete)
	}

	artifacts := authed.Group("/artifacts")
	{
		artifacts.GET("", r.Artifacts.List)
		artifacts.GET("/:id", r.Artifacts.Get)
	}
}
