package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campushq/mentor-portal-api/internal/dto"
	"github.com/campushq/mentor-portal-api/internal/models"
	appErrors "github.com/campushq/mentor-portal-api/pkg/errors"
)

type meetingRegistryStub struct {
	meetings map[string]*models.Meeting
	filter   models.MeetingFilter
}

func newMeetingRegistryStub() *meetingRegistryStub {
	return &meetingRegistryStub{meetings: make(map[string]*models.Meeting)}
}

func (m *meetingRegistryStub) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = "meeting-1"
	}
	m.meetings[meeting.ID] = meeting
	return nil
}

func (m *meetingRegistryStub) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	if meeting, ok := m.meetings[id]; ok {
		copy := *meeting
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *meetingRegistryStub) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, error) {
	m.filter = filter
	result := make([]models.Meeting, 0, len(m.meetings))
	for _, meeting := range m.meetings {
		result = append(result, *meeting)
	}
	return result, nil
}

func (m *meetingRegistryStub) UpdateStatus(ctx context.Context, id string, next models.MeetingStatus, note *string) error {
	meeting, ok := m.meetings[id]
	if !ok || meeting.Status != models.MeetingStatusScheduled {
		return sql.ErrNoRows
	}
	meeting.Status = next
	if note != nil {
		meeting.ReviewNote = note
	}
	return nil
}

func (m *meetingRegistryStub) SetReviewNote(ctx context.Context, id, note string) error {
	meeting, ok := m.meetings[id]
	if !ok || meeting.Status != models.MeetingStatusCompleted {
		return sql.ErrNoRows
	}
	meeting.ReviewNote = &note
	return nil
}

func facultyClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleFaculty}
}

func TestMeetingServiceScheduleDirect(t *testing.T) {
	repo := newMeetingRegistryStub()
	notifier := &notifierStub{}
	svc := NewMeetingService(repo, &auditStub{}, nil, WithMeetingNotifier(notifier))

	meeting, err := svc.Schedule(context.Background(), dto.ScheduleMeetingRequest{
		MenteeID:    "student-1",
		Title:       "Weekly sync",
		Date:        "2024-04-02",
		Time:        "10:30",
		MeetingType: models.MeetingTypePhone,
	}, facultyClaims("faculty-1"))
	require.NoError(t, err)
	require.Equal(t, "faculty-1", meeting.MentorID)
	require.Equal(t, models.MeetingStatusScheduled, meeting.Status)
	require.Equal(t, 60, meeting.DurationMinutes)
	require.Equal(t, models.MeetingTypePhone, meeting.MeetingType)
	want := time.Date(2024, 4, 2, 10, 30, 0, 0, time.Local)
	require.True(t, meeting.ScheduledAt.Equal(want))
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "student-1", notifier.sent[0].RecipientID)
}

func TestMeetingServiceScheduleRejectsBadDateTime(t *testing.T) {
	svc := NewMeetingService(newMeetingRegistryStub(), &auditStub{}, nil)

	_, err := svc.Schedule(context.Background(), dto.ScheduleMeetingRequest{
		MenteeID: "student-1",
		Title:    "Weekly sync",
		Date:     "next tuesday",
		Time:     "morning",
	}, facultyClaims("faculty-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestMeetingServiceScheduleForbiddenForStudents(t *testing.T) {
	svc := NewMeetingService(newMeetingRegistryStub(), &auditStub{}, nil)

	_, err := svc.Schedule(context.Background(), dto.ScheduleMeetingRequest{
		MenteeID: "student-2",
		Title:    "Weekly sync",
		Date:     "2024-04-02",
		Time:     "10:30",
	}, studentClaims("student-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestMeetingServiceCancelAndComplete(t *testing.T) {
	repo := newMeetingRegistryStub()
	repo.meetings["meeting-1"] = &models.Meeting{
		ID:       "meeting-1",
		MentorID: "faculty-1",
		MenteeID: "student-1",
		Status:   models.MeetingStatusScheduled,
	}
	svc := NewMeetingService(repo, &auditStub{}, nil)

	meeting, err := svc.Complete(context.Background(), "meeting-1", facultyClaims("faculty-1"))
	require.NoError(t, err)
	require.Equal(t, models.MeetingStatusCompleted, meeting.Status)

	// Completed meetings cannot be cancelled.
	_, err = svc.Cancel(context.Background(), "meeting-1", facultyClaims("faculty-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestMeetingServiceMutationRestrictedToMentor(t *testing.T) {
	repo := newMeetingRegistryStub()
	repo.meetings["meeting-1"] = &models.Meeting{
		ID:       "meeting-1",
		MentorID: "faculty-1",
		MenteeID: "student-1",
		Status:   models.MeetingStatusScheduled,
	}
	svc := NewMeetingService(repo, &auditStub{}, nil)

	// Another faculty member cannot even see the meeting.
	_, err := svc.Cancel(context.Background(), "meeting-1", facultyClaims("faculty-2"))
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	// The mentee sees the meeting but cannot mutate it.
	_, err = svc.Cancel(context.Background(), "meeting-1", studentClaims("student-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	// HOD may cancel on the mentor's behalf.
	meeting, err := svc.Cancel(context.Background(), "meeting-1", hodClaims("hod-1"))
	require.NoError(t, err)
	require.Equal(t, models.MeetingStatusCancelled, meeting.Status)
}

func TestMeetingServiceAddReview(t *testing.T) {
	repo := newMeetingRegistryStub()
	repo.meetings["meeting-1"] = &models.Meeting{
		ID:       "meeting-1",
		MentorID: "faculty-1",
		MenteeID: "student-1",
		Status:   models.MeetingStatusScheduled,
	}
	svc := NewMeetingService(repo, &auditStub{}, nil)

	// A scheduled meeting cannot be reviewed yet.
	_, err := svc.AddReview(context.Background(), "meeting-1", dto.MeetingReviewRequest{Note: "productive"}, facultyClaims("faculty-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))

	repo.meetings["meeting-1"].Status = models.MeetingStatusCompleted
	meeting, err := svc.AddReview(context.Background(), "meeting-1", dto.MeetingReviewRequest{Note: "productive"}, facultyClaims("faculty-1"))
	require.NoError(t, err)
	require.NotNil(t, meeting.ReviewNote)
	require.Equal(t, "productive", *meeting.ReviewNote)

	_, err = svc.AddReview(context.Background(), "meeting-1", dto.MeetingReviewRequest{Note: "  "}, facultyClaims("faculty-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestMeetingServiceListScoping(t *testing.T) {
	repo := newMeetingRegistryStub()
	svc := NewMeetingService(repo, &auditStub{}, nil)

	_, err := svc.List(context.Background(), dto.MeetingQuery{}, facultyClaims("faculty-1"))
	require.NoError(t, err)
	require.Equal(t, "faculty-1", repo.filter.MentorID)

	_, err = svc.List(context.Background(), dto.MeetingQuery{}, studentClaims("student-1"))
	require.NoError(t, err)
	require.Equal(t, "student-1", repo.filter.MenteeID)

	_, err = svc.List(context.Background(), dto.MeetingQuery{}, hodClaims("hod-1"))
	require.NoError(t, err)
	require.Empty(t, repo.filter.MentorID)
	require.Empty(t, repo.filter.MenteeID)
}

type memoryCacheStub struct {
	entries map[string][]byte
}

func newMemoryCacheStub() *memoryCacheStub {
	return &memoryCacheStub{entries: make(map[string][]byte)}
}

func (m *memoryCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// pagingMeetingStore returns one meeting per call named after the requested
// offset, so cached and fresh pages are distinguishable.
type pagingMeetingStore struct {
	*meetingRegistryStub
}

func (m *pagingMeetingStore) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, error) {
	return []models.Meeting{{ID: fmt.Sprintf("page-%d", filter.Offset)}}, nil
}

func TestMeetingServiceListCachesPerPage(t *testing.T) {
	cacheSvc := NewCacheService(newMemoryCacheStub(), nil, time.Minute, nil, true)
	store := &pagingMeetingStore{newMeetingRegistryStub()}
	svc := NewMeetingService(store, &auditStub{}, nil, WithMeetingCache(cacheSvc))

	first, err := svc.List(context.Background(), dto.MeetingQuery{Limit: 1, Offset: 0}, hodClaims("hod-1"))
	require.NoError(t, err)
	require.Equal(t, "page-0", first[0].ID)

	second, err := svc.List(context.Background(), dto.MeetingQuery{Limit: 1, Offset: 1}, hodClaims("hod-1"))
	require.NoError(t, err)
	require.Equal(t, "page-1", second[0].ID)

	// Same page again comes from cache and still carries its own data.
	repeat, err := svc.List(context.Background(), dto.MeetingQuery{Limit: 1, Offset: 0}, hodClaims("hod-1"))
	require.NoError(t, err)
	require.Equal(t, "page-0", repeat[0].ID)
}
