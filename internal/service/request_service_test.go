package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campushq/mentor-portal-api/internal/dto"
	"github.com/campushq/mentor-portal-api/internal/meetingtext"
	"github.com/campushq/mentor-portal-api/internal/models"
	"github.com/campushq/mentor-portal-api/internal/repository"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

type requestRepoStub struct {
	requests map[string]*models.Request
	filter   models.RequestFilter
}

func newRequestRepoStub() *requestRepoStub {
	return &requestRepoStub{requests: make(map[string]*models.Request)}
}

func (r *requestRepoStub) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = "req-" + request.Title
	}
	r.requests[request.ID] = request
	return nil
}

func (r *requestRepoStub) GetByID(ctx context.Context, id string) (*models.Request, error) {
	if req, ok := r.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *requestRepoStub) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	r.filter = filter
	result := make([]models.Request, 0, len(r.requests))
	for _, req := range r.requests {
		result = append(result, *req)
	}
	return result, nil
}

func (r *requestRepoStub) UpdateStatus(ctx context.Context, params repository.ReviewParams) error {
	req, ok := r.requests[params.ID]
	if !ok || req.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	req.Status = params.Status
	req.ReviewedBy = &params.ReviewedBy
	req.ReviewedAt = &params.ReviewedAt
	req.ReviewNotes = params.ReviewNotes
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type notifierStub struct {
	sent []Notification
}

func (n *notifierStub) Notify(notification Notification) {
	n.sent = append(n.sent, notification)
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func hodClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleHOD}
}

func TestRequestServiceSubmitMeetingEncodesDescription(t *testing.T) {
	repo := newRequestRepoStub()
	audit := &auditStub{}
	svc := NewRequestService(repo, audit, nil)

	request, err := svc.Submit(context.Background(), dto.SubmitRequest{
		Type:         models.RequestTypeMeeting,
		TargetUserID: "mentor-1",
		Title:        "Progress check-in",
		Meeting: &meetingtext.Params{
			PreferredDate: "2024-03-10",
			PreferredTime: "14:00",
			MeetingType:   models.MeetingTypeOnline,
			Purpose:       "Discuss semester progress",
		},
	}, studentClaims("student-1"))
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPending, request.Status)
	require.Contains(t, request.Description, "Preferred Date: 2024-03-10")
	require.Contains(t, request.Description, "Duration: 60 minutes")
	require.Contains(t, request.Description, "Type: online")
	require.True(t, strings.HasSuffix(request.Description, "Discuss semester progress"))
	require.Len(t, audit.logs, 1)
}

func TestRequestServiceSubmitValidation(t *testing.T) {
	svc := NewRequestService(newRequestRepoStub(), &auditStub{}, nil)
	actor := studentClaims("student-1")

	cases := []struct {
		name string
		req  dto.SubmitRequest
	}{
		{"unknown type", dto.SubmitRequest{Type: "vacation", Title: "x"}},
		{"missing title", dto.SubmitRequest{Type: models.RequestTypeOther}},
		{"meeting without params", dto.SubmitRequest{Type: models.RequestTypeMeeting, TargetUserID: "m", Title: "x"}},
		{"mentor assignment without target", dto.SubmitRequest{Type: models.RequestTypeMentorAssignment, Title: "x"}},
		{"internship without payload", dto.SubmitRequest{Type: models.RequestTypeInternship, Title: "x"}},
		{"delete without artifact id", dto.SubmitRequest{
			Type:     models.RequestTypeDeleteProject,
			Title:    "x",
			Artifact: json.RawMessage(`{"title":"old project"}`),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.req, actor)
			require.True(t, appErrors.Is(err, appErrors.ErrValidation), "expected validation error, got %v", err)
		})
	}
}

func TestRequestServiceReviewApproveRunsResolverBeforeFlip(t *testing.T) {
	repo := newRequestRepoStub()
	audit := &auditStub{}
	notifier := &notifierStub{}
	target := "mentor-1"
	repo.requests["req-1"] = &models.Request{
		ID:           "req-1",
		Type:         models.RequestTypeMentorAssignment,
		RequesterID:  "student-1",
		TargetUserID: &target,
		Status:       models.RequestStatusPending,
	}

	var seenStatus models.RequestStatus
	resolvers := map[models.RequestType]Resolver{
		models.RequestTypeMentorAssignment: ResolverFunc(func(ctx context.Context, request *models.Request) error {
			seenStatus = request.Status
			return nil
		}),
	}
	svc := NewRequestService(repo, audit, nil, WithResolvers(resolvers), WithRequestNotifier(notifier))

	result, err := svc.Review(context.Background(), "req-1", dto.ReviewRequest{Decision: dto.DecisionApprove}, hodClaims("hod-1"))
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusApproved, result.Status)
	// The resolver sees the request while still pending.
	require.Equal(t, models.RequestStatusPending, seenStatus)
	require.Equal(t, models.RequestStatusApproved, repo.requests["req-1"].Status)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "student-1", notifier.sent[0].RecipientID)
	require.Equal(t, NotificationEventRequestReviewed, notifier.sent[0].Event)
}

func TestRequestServiceReviewRejectRequiresNotes(t *testing.T) {
	repo := newRequestRepoStub()
	repo.requests["req-1"] = &models.Request{
		ID:          "req-1",
		Type:        models.RequestTypeOther,
		RequesterID: "student-1",
		Status:      models.RequestStatusPending,
	}
	svc := NewRequestService(repo, &auditStub{}, nil)

	_, err := svc.Review(context.Background(), "req-1", dto.ReviewRequest{Decision: dto.DecisionReject}, hodClaims("hod-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Equal(t, models.RequestStatusPending, repo.requests["req-1"].Status)

	result, err := svc.Review(context.Background(), "req-1", dto.ReviewRequest{Decision: dto.DecisionReject, Notes: "insufficient detail"}, hodClaims("hod-1"))
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusRejected, result.Status)
	require.NotNil(t, result.ReviewNotes)
	require.Equal(t, "insufficient detail", *result.ReviewNotes)
}

func TestRequestServiceReviewAlreadyReviewed(t *testing.T) {
	repo := newRequestRepoStub()
	repo.requests["req-1"] = &models.Request{
		ID:          "req-1",
		Type:        models.RequestTypeOther,
		RequesterID: "student-1",
		Status:      models.RequestStatusApproved,
	}
	svc := NewRequestService(repo, &auditStub{}, nil)

	_, err := svc.Review(context.Background(), "req-1", dto.ReviewRequest{Decision: dto.DecisionApprove}, hodClaims("hod-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestRequestServiceReviewNotFound(t *testing.T) {
	svc := NewRequestService(newRequestRepoStub(), &auditStub{}, nil)
	_, err := svc.Review(context.Background(), "missing", dto.ReviewRequest{Decision: dto.DecisionApprove}, hodClaims("hod-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRequestServiceResolverFailureLeavesPending(t *testing.T) {
	repo := newRequestRepoStub()
	target := "mentor-2"
	repo.requests["req-1"] = &models.Request{
		ID:           "req-1",
		Type:         models.RequestTypeMentorAssignment,
		RequesterID:  "student-1",
		TargetUserID: &target,
		Status:       models.RequestStatusPending,
	}
	resolvers := map[models.RequestType]Resolver{
		models.RequestTypeMentorAssignment: ResolverFunc(func(ctx context.Context, request *models.Request) error {
			return appErrors.Clone(appErrors.ErrConflict, "mentee already has an active mentor")
		}),
	}
	svc := NewRequestService(repo, &auditStub{}, nil, WithResolvers(resolvers))

	_, err := svc.Review(context.Background(), "req-1", dto.ReviewRequest{Decision: dto.DecisionApprove}, hodClaims("hod-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
	require.Equal(t, models.RequestStatusPending, repo.requests["req-1"].Status)
}

func TestRequestServiceReviewAuthorization(t *testing.T) {
	repo := newRequestRepoStub()
	target := "faculty-1"
	repo.requests["meeting"] = &models.Request{
		ID:           "meeting",
		Type:         models.RequestTypeMeeting,
		RequesterID:  "student-1",
		TargetUserID: &target,
		Status:       models.RequestStatusPending,
		Description:  "Preferred Date: 2024-03-10\nPreferred Time: 14:00\n\nCatch up",
	}
	repo.requests["internship"] = &models.Request{
		ID:          "internship",
		Type:        models.RequestTypeInternship,
		RequesterID: "student-1",
		Status:      models.RequestStatusPending,
	}
	repo.requests["own"] = &models.Request{
		ID:          "own",
		Type:        models.RequestTypeOther,
		RequesterID: "hod-1",
		Status:      models.RequestStatusPending,
	}
	svc := NewRequestService(repo, &auditStub{}, nil, WithResolvers(map[models.RequestType]Resolver{
		models.RequestTypeMeeting: ResolverFunc(func(context.Context, *models.Request) error { return nil }),
	}))

	// Students never review.
	_, err := svc.Review(context.Background(), "meeting", dto.ReviewRequest{Decision: dto.DecisionApprove}, studentClaims("student-2"))
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	// Faculty may not review artifact requests.
	faculty := &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty}
	_, err = svc.Review(context.Background(), "internship", dto.ReviewRequest{Decision: dto.DecisionApprove}, faculty)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	// Faculty may not review a meeting aimed at someone else.
	otherFaculty := &models.JWTClaims{UserID: "faculty-2", Role: models.RoleFaculty}
	_, err = svc.Review(context.Background(), "meeting", dto.ReviewRequest{Decision: dto.DecisionApprove}, otherFaculty)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	// Reviewers never review their own submissions.
	_, err = svc.Review(context.Background(), "own", dto.ReviewRequest{Decision: dto.DecisionApprove}, hodClaims("hod-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	// The targeted faculty member may review their meeting request.
	result, err := svc.Review(context.Background(), "meeting", dto.ReviewRequest{Decision: dto.DecisionApprove}, faculty)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusApproved, result.Status)
}

func TestRequestServiceListScoping(t *testing.T) {
	repo := newRequestRepoStub()
	svc := NewRequestService(repo, &auditStub{}, nil)

	_, err := svc.List(context.Background(), dto.RequestQuery{}, hodClaims("hod-1"))
	require.NoError(t, err)
	require.Empty(t, repo.filter.RequesterID)
	require.Empty(t, repo.filter.TargetID)

	_, err = svc.List(context.Background(), dto.RequestQuery{}, &models.JWTClaims{UserID: "faculty-1", Role: models.RoleFaculty})
	require.NoError(t, err)
	require.Equal(t, "faculty-1", repo.filter.TargetID)

	_, err = svc.List(context.Background(), dto.RequestQuery{}, studentClaims("student-1"))
	require.NoError(t, err)
	require.Equal(t, "student-1", repo.filter.RequesterID)
}

func TestRequestServiceReviewInvalidDecision(t *testing.T) {
	svc := NewRequestService(newRequestRepoStub(), &auditStub{}, nil)
	_, err := svc.Review(context.Background(), "req-1", dto.ReviewRequest{Decision: "maybe"}, hodClaims("hod-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
