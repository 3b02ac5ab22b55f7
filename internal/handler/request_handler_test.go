package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campushq/mentor-portal-api/internal/dto"
	"github.com/campushq/mentor-portal-api/internal/middleware"
	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

type requestServiceMock struct {
	submitResp *models.Request
	submitErr  error
	reviewResp *models.Request
	reviewErr  error
	listResp   []models.Request
	query      dto.RequestQuery
}

func (m *requestServiceMock) Submit(ctx context.Context, req dto.SubmitRequest, actor *models.JWTClaims) (*models.Request, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.submitResp, nil
}

func (m *requestServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Request, error) {
	return m.submitResp, nil
}

func (m *requestServiceMock) List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.Request, error) {
	m.query = query
	return m.listResp, nil
}

func (m *requestServiceMock) Review(ctx context.Context, id string, req dto.ReviewRequest, actor *models.JWTClaims) (*models.Request, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return m.reviewResp, nil
}

func testContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestRequestHandlerSubmit(t *testing.T) {
	mock := &requestServiceMock{submitResp: &models.Request{ID: "req-1", Status: models.RequestStatusPending}}
	h := NewRequestHandler(mock)

	body, _ := json.Marshal(dto.SubmitRequest{Type: models.RequestTypeOther, Title: "Help"})
	c, w := testContext(t, http.MethodPost, "/requests", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"req-1"`)
}

func TestRequestHandlerSubmitRequiresAuth(t *testing.T) {
	h := NewRequestHandler(&requestServiceMock{})
	c, w := testContext(t, http.MethodPost, "/requests", []byte(`{}`))

	h.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandlerSubmitInvalidBody(t *testing.T) {
	h := NewRequestHandler(&requestServiceMock{})
	c, w := testContext(t, http.MethodPost, "/requests", []byte(`not json`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	h.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerListParsesQuery(t *testing.T) {
	mock := &requestServiceMock{}
	h := NewRequestHandler(mock)
	c, w := testContext(t, http.MethodGet, "/requests?status=pending,approved&type=Meeting-Request&limit=10", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "hod-1", Role: models.RoleHOD})

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []models.RequestStatus{models.RequestStatusPending, models.RequestStatusApproved}, mock.query.Status)
	require.Equal(t, models.RequestTypeMeeting, mock.query.Type)
	require.Equal(t, 10, mock.query.Limit)
}

func TestRequestHandlerReviewMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", appErrors.Clone(appErrors.ErrNotFound, "request not found"), http.StatusNotFound},
		{"invalid transition", appErrors.Clone(appErrors.ErrInvalidTransition, "already reviewed"), http.StatusConflict},
		{"conflict", appErrors.Clone(appErrors.ErrConflict, "active mentor exists"), http.StatusConflict},
		{"validation", appErrors.Clone(appErrors.ErrValidation, "notes required"), http.StatusBadRequest},
		{"forbidden", appErrors.ErrForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRequestHandler(&requestServiceMock{reviewErr: tc.err})
			body, _ := json.Marshal(dto.ReviewRequest{Decision: dto.DecisionApprove})
			c, w := testContext(t, http.MethodPost, "/requests/req-1/review", body)
			c.Params = gin.Params{{Key: "id", Value: "req-1"}}
			c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "hod-1", Role: models.RoleHOD})

			h.Review(c)
			require.Equal(t, tc.code, w.Code)
		})
	}
}
