package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campushq/mentor-portal-api/internal/models"
)

func meetingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "mentor_id", "mentee_id", "title", "description", "scheduled_at",
		"duration_minutes", "meeting_type", "location", "status", "review_note",
		"created_at", "updated_at",
	})
}

func TestMeetingRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMeetingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO meetings")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	meeting := &models.Meeting{
		MentorID:        "faculty-1",
		MenteeID:        "student-1",
		Title:           "Check-in",
		ScheduledAt:     time.Date(2024, 3, 10, 14, 0, 0, 0, time.Local),
		DurationMinutes: 45,
		MeetingType:     models.MeetingTypeOnline,
	}
	require.NoError(t, repo.Create(context.Background(), meeting))
	require.NotEmpty(t, meeting.ID)
	require.Equal(t, models.MeetingStatusScheduled, meeting.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMeetingRepository(db)
	rows := meetingRows().AddRow("meeting-1", "faculty-1", "student-1", "Check-in", "",
		time.Now(), 45, "online", nil, "scheduled", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mentor_id, mentee_id")).
		WithArgs("faculty-1", "scheduled").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.MeetingFilter{
		MentorID: "faculty-1",
		Status:   []models.MeetingStatus{models.MeetingStatusScheduled},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "meeting-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMeetingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE meetings SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "meeting-1", models.MeetingStatusCompleted, nil))

	// The status guard no longer matches once the meeting left scheduled.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE meetings SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "meeting-1", models.MeetingStatusCancelled, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositorySetReviewNote(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMeetingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE meetings SET review_note")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetReviewNote(context.Background(), "meeting-1", "productive session")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
