package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

func mentorshipRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "mentor_id", "mentee_id", "status", "requested_by", "requested_at", "approved_at", "notes",
	})
}

func TestMentorshipRepositoryCreateRejectsActiveMentee(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMentorshipRepository(db)
	rows := mentorshipRows().AddRow("m-1", "faculty-9", "student-1", "active", "student-1", time.Now(), time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mentor_id, mentee_id")).
		WithArgs("student-1", models.MentorshipStatusActive).
		WillReturnRows(rows)

	err := repo.Create(context.Background(), &models.Mentorship{
		MentorID:    "faculty-1",
		MenteeID:    "student-1",
		RequestedBy: "student-1",
	})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorshipRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMentorshipRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mentor_id, mentee_id")).
		WithArgs("student-1", models.MentorshipStatusActive).
		WillReturnRows(mentorshipRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mentorships")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mentorship := &models.Mentorship{
		MentorID:    "faculty-1",
		MenteeID:    "student-1",
		RequestedBy: "student-1",
	}
	require.NoError(t, repo.Create(context.Background(), mentorship))
	require.NotEmpty(t, mentorship.ID)
	require.Equal(t, models.MentorshipStatusPending, mentorship.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorshipRepositoryActivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMentorshipRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("m-1").
		WillReturnRows(mentorshipRows().AddRow("m-1", "faculty-1", "student-1", "pending", "student-1", now, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM mentorships")).
		WithArgs("student-1", models.MentorshipStatusActive, "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE mentorships SET status")).
		WithArgs("m-1", models.MentorshipStatusActive, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Activate(context.Background(), "m-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorshipRepositoryActivateConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMentorshipRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("m-1").
		WillReturnRows(mentorshipRows().AddRow("m-1", "faculty-1", "student-1", "pending", "student-1", now, nil, nil))
	// Another relationship won the race for the mentee's active slot.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM mentorships")).
		WithArgs("student-1", models.MentorshipStatusActive, "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("m-2"))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "m-1", now)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorshipRepositoryActivateNotPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMentorshipRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("m-1").
		WillReturnRows(mentorshipRows().AddRow("m-1", "faculty-1", "student-1", "completed", "student-1", now, now, nil))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), "m-1", now)
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMentorshipRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMentorshipRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE mentorships SET status")).
		WithArgs("m-1", models.MentorshipStatusCompleted, models.MentorshipStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "m-1", models.MentorshipStatusCompleted, models.MentorshipStatusActive)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
