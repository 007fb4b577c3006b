package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/pkg/jobs"
	"github.com/rosterly/staffing-api/pkg/mailer"
)

const (
	jobClassAssigned       = "class_assigned"
	jobSubstituteRequested = "substitute_requested"
)

type emailPayload struct {
	ToName    string
	ToEmail   string
	Subject   string
	PlainBody string
}

// NotificationService sends teacher-facing email off the request path. Every
// Notify call enqueues onto an in-memory worker queue; delivery failures are
// retried by the queue and never surface to the caller.
type NotificationService struct {
	mailer mailer.Mailer
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService and its queue. Call
// Start before enqueueing and Stop on shutdown.
func NewNotificationService(m mailer.Mailer, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{mailer: m, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, cfg)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) handle(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(emailPayload)
	if !ok {
		s.logger.Error("notification job carries unexpected payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.mailer.Send(payload.ToName, payload.ToEmail, payload.Subject, payload.PlainBody, "")
}

func (s *NotificationService) enqueue(jobType string, payload emailPayload) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobType,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("type", jobType), zap.Error(err))
	}
}

// ClassAssigned tells a teacher they were given an ad-hoc class.
func (s *NotificationService) ClassAssigned(teacher *models.Teacher, class *models.AdHocClass) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have been assigned %q (%s) on %s from %s to %s.",
		teacher.FullName,
		class.ClassName,
		class.Kind.Label(),
		class.ScheduledDate.Format("Monday, 2 January 2006"),
		class.StartTime,
		class.EndTime,
	)
	if class.MeetingLink != nil && *class.MeetingLink != "" {
		body += "\nMeeting link: " + *class.MeetingLink
	}
	s.enqueue(jobClassAssigned, emailPayload{
		ToName:    teacher.FullName,
		ToEmail:   teacher.Email,
		Subject:   "New class assignment: " + class.ClassName,
		PlainBody: body,
	})
}

// SubstituteRequested tells a teacher they are covering someone's leave.
func (s *NotificationService) SubstituteRequested(substitute *models.Teacher, schedule *models.FixedSchedule, date time.Time) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou are covering a class on %s from %s to %s.",
		substitute.FullName,
		date.Format("Monday, 2 January 2006"),
		schedule.StartTime,
		schedule.EndTime,
	)
	s.enqueue(jobSubstituteRequested, emailPayload{
		ToName:    substitute.FullName,
		ToEmail:   substitute.Email,
		Subject:   "Substitute cover requested",
		PlainBody: body,
	})
}
