package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushq/mentor-portal-api/internal/models"
	"github.com/campushq/mentor-portal-api/pkg/jobs"
)

// Notification is the payload delivered to a user when the workflow produces
// an outcome that concerns them.
type Notification struct {
	RecipientID string               `json:"recipientId"`
	Event       string               `json:"event"`
	RequestID   string               `json:"requestId,omitempty"`
	RequestType models.RequestType   `json:"requestType,omitempty"`
	Status      models.RequestStatus `json:"status,omitempty"`
	Message     string               `json:"message,omitempty"`
}

// Notification events emitted by the workflow.
const (
	NotificationEventRequestReviewed = "request.reviewed"
	NotificationEventMeetingCreated  = "meeting.created"
)

// NotificationService dispatches notifications on a background worker queue.
// Delivery is fire-and-forget: a full queue or a stopped dispatcher never
// blocks or fails the workflow that produced the event.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService builds the dispatcher with its worker queue.
func NewNotificationService(cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify enqueues a notification for asynchronous delivery.
func (s *NotificationService) Notify(n Notification) {
	if s == nil || n.RecipientID == "" {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    n.Event,
		Payload: n,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("event", n.Event),
			zap.String("recipient", n.RecipientID),
			zap.Error(err))
	}
}

// deliver is the queue handler. Transport integration (email, push) hangs off
// this point; for now delivery is a structured log line.
func (s *NotificationService) deliver(_ context.Context, job jobs.Job) error {
	n, ok := job.Payload.(Notification)
	if !ok {
		s.logger.Warn("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	s.logger.Info("notification delivered",
		zap.String("event", n.Event),
		zap.String("recipient", n.RecipientID),
		zap.String("request_id", n.RequestID),
		zap.String("status", string(n.Status)))
	return nil
}
