package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushq/mentor-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func requestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "type", "requester_id", "target_user_id", "title", "description",
		"status", "reviewed_by", "reviewed_at", "review_notes", "created_at", "updated_at",
	})
}

func TestRequestRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.Request{
		Type:        models.RequestTypeMentorAssignment,
		RequesterID: "student-1",
		Title:       "Request mentor",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RequestStatusPending, request.Status)

	rows := requestRows().AddRow(request.ID, "mentor-assignment", "student-1", nil,
		"Request mentor", "", "pending", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, requester_id")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, found.ID)
	require.Equal(t, models.RequestTypeMentorAssignment, found.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	rows := requestRows().AddRow("req-1", "meeting-request", "student-1", "faculty-1",
		"Check-in", "", "pending", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, requester_id")).
		WithArgs("pending", "meeting-request", "faculty-1").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.RequestFilter{
		Status:   []models.RequestStatus{models.RequestStatusPending},
		Type:     models.RequestTypeMeeting,
		TargetID: "faculty-1",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "req-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now().UTC()
	notes := "approved after discussion"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateStatus(context.Background(), ReviewParams{
		ID:          "req-1",
		Status:      models.RequestStatusApproved,
		ReviewedBy:  "hod-1",
		ReviewedAt:  now,
		ReviewNotes: &notes,
	})
	require.NoError(t, err)

	// Second review touches zero rows because the status guard no longer matches.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests")).WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), ReviewParams{
		ID:         "req-1",
		Status:     models.RequestStatusRejected,
		ReviewedBy: "hod-1",
		ReviewedAt: now,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
