package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/email"
	"github.com/yigit/internportal/internal/pkg/queue"
)

// Notification event types carried on the queue
const (
	EventInternshipPosted      = "internship_posted"
	EventVerificationRequested = "verification_requested"
)

const sendConcurrency = 5

// inlineSendTimeout bounds a notification sent without the queue
const inlineSendTimeout = 2 * time.Minute

type notificationEvent struct {
	Type         string                               `json:"type"`
	Internship   *dto.InternshipNotificationRequest   `json:"internship,omitempty"`
	Verification *dto.VerificationNotificationRequest `json:"verification,omitempty"`
}

// Notifier is called by the lifecycle services after a write
type Notifier interface {
	InternshipPosted(ctx context.Context, internship *models.Internship)
	VerificationRequested(ctx context.Context, req dto.VerificationNotificationRequest)
}

// NotificationService emails department members. With a publisher the
// triggers go through the queue and HandleMessage does the sending.
type NotificationService struct {
	profiles    repositories.IProfileRepository
	internships repositories.IInternshipRepository
	mailer      email.EmailService
	publisher   queue.Publisher
	logger      zerolog.Logger

	inline sync.WaitGroup
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(
	profiles repositories.IProfileRepository,
	internships repositories.IInternshipRepository,
	mailer email.EmailService,
	publisher queue.Publisher,
	logger zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		profiles:    profiles,
		internships: internships,
		mailer:      mailer,
		publisher:   publisher,
		logger:      logger,
	}
}

// SendInternshipNotification emails every student of the department about an internship
func (s *NotificationService) SendInternshipNotification(ctx context.Context, req dto.InternshipNotificationRequest) (*dto.NotificationResult, error) {
	if strings.TrimSpace(req.InternshipID) == "" || strings.TrimSpace(req.DepartmentID) == "" {
		return nil, apperrors.NewValidationError("internship_id", "internship_id and department_id are required")
	}
	internshipID, err1 := uuid.Parse(req.InternshipID)
	departmentID, err2 := uuid.Parse(req.DepartmentID)
	if err1 != nil || err2 != nil {
		return nil, apperrors.NewValidationError("internship_id", "internship_id and department_id must be valid UUIDs")
	}

	internship, err := s.internships.GetByID(ctx, internshipID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Internship not found")
		}
		return nil, err
	}

	students, err := s.profiles.ListByDepartmentAndRole(ctx, departmentID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return &dto.NotificationResult{Message: "No students found in department", Sent: 0}, nil
	}

	payload := email.InternshipPosted{
		Title:       internship.Title,
		CompanyName: internship.CompanyName,
		Location:    deref(internship.Location),
		Duration:    internship.Duration,
		Stipend:     deref(internship.Stipend),
		Description: deref(internship.Description),
	}
	sent, failed := s.fanOut(students, func(to email.Recipient) error {
		return s.mailer.SendInternshipPosted(to, payload)
	})

	s.logger.Info().
		Str("internshipID", internshipID.String()).
		Int("sent", sent).
		Int("failed", failed).
		Msg("Internship notification dispatched")
	return fanOutResult(sent, failed), nil
}

// SendVerificationNotification emails every faculty member of the department about a submitted certificate
func (s *NotificationService) SendVerificationNotification(ctx context.Context, req dto.VerificationNotificationRequest) (*dto.NotificationResult, error) {
	if strings.TrimSpace(req.CertificateID) == "" || strings.TrimSpace(req.DepartmentID) == "" {
		return nil, apperrors.NewValidationError("certificate_id", "certificate_id and department_id are required")
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, apperrors.NewValidationError("department_id", "department_id must be a valid UUID")
	}

	faculty, err := s.profiles.ListByDepartmentAndRole(ctx, departmentID, models.RoleFaculty)
	if err != nil {
		return nil, err
	}
	if len(faculty) == 0 {
		return &dto.NotificationResult{Message: "No faculty found in department", Sent: 0}, nil
	}

	payload := email.VerificationRequest{
		StudentName:     req.StudentName,
		StudentEmail:    req.StudentEmail,
		InternshipTitle: req.InternshipTitle,
		CompanyName:     req.CompanyName,
	}
	sent, failed := s.fanOut(faculty, func(to email.Recipient) error {
		return s.mailer.SendVerificationRequest(to, payload)
	})

	s.logger.Info().
		Str("certificateID", req.CertificateID).
		Int("sent", sent).
		Int("failed", failed).
		Msg("Verification notification dispatched")
	return fanOutResult(sent, failed), nil
}

// InternshipPosted triggers the internship notification. Without the queue
// the emails go out in the background. Failures are logged, never returned.
func (s *NotificationService) InternshipPosted(ctx context.Context, internship *models.Internship) {
	req := dto.InternshipNotificationRequest{
		InternshipID: internship.ID.String(),
		DepartmentID: internship.DepartmentID.String(),
	}
	if s.publish(ctx, internship.ID.String(), notificationEvent{Type: EventInternshipPosted, Internship: &req}) {
		return
	}
	s.sendInline(ctx, func(ctx context.Context) {
		if _, err := s.SendInternshipNotification(ctx, req); err != nil {
			s.logger.Error().Err(err).Str("internshipID", req.InternshipID).Msg("Internship notification failed")
		}
	})
}

// VerificationRequested triggers the verification notification. Failures are logged, never returned.
func (s *NotificationService) VerificationRequested(ctx context.Context, req dto.VerificationNotificationRequest) {
	if s.publish(ctx, req.CertificateID, notificationEvent{Type: EventVerificationRequested, Verification: &req}) {
		return
	}
	s.sendInline(ctx, func(ctx context.Context) {
		if _, err := s.SendVerificationNotification(ctx, req); err != nil {
			s.logger.Error().Err(err).Str("certificateID", req.CertificateID).Msg("Verification notification failed")
		}
	})
}

// HandleMessage dispatches a queued notification event
func (s *NotificationService) HandleMessage(ctx context.Context, _, value []byte) error {
	var event notificationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("invalid notification event: %w", err)
	}

	var err error
	switch event.Type {
	case EventInternshipPosted:
		if event.Internship == nil {
			return fmt.Errorf("notification event %q has no payload", event.Type)
		}
		_, err = s.SendInternshipNotification(ctx, *event.Internship)
	case EventVerificationRequested:
		if event.Verification == nil {
			return fmt.Errorf("notification event %q has no payload", event.Type)
		}
		_, err = s.SendVerificationNotification(ctx, *event.Verification)
	default:
		return fmt.Errorf("unknown notification event %q", event.Type)
	}
	return err
}

// publish reports whether the event was handed to the queue
func (s *NotificationService) publish(ctx context.Context, key string, event notificationEvent) bool {
	if s.publisher == nil {
		return false
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode notification event")
		return false
	}
	if err := s.publisher.PublishMessage(ctx, []byte(key), body); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("Publish failed, sending notification inline")
		return false
	}
	return true
}

// sendInline runs send in the background on a context detached from the request
func (s *NotificationService) sendInline(ctx context.Context, send func(context.Context)) {
	s.inline.Add(1)
	go func() {
		defer s.inline.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineSendTimeout)
		defer cancel()
		send(ctx)
	}()
}

// Wait blocks until background sends have finished or ctx is done
func (s *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inline.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fanOut sends to every profile with a small worker limit
func (s *NotificationService) fanOut(profiles []*models.Profile, send func(email.Recipient) error) (sent, failed int) {
	var ok, bad int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, sendConcurrency)

	for _, p := range profiles {
		to := email.Recipient{Email: p.Email, FullName: p.FullName}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := send(to); err != nil {
				s.logger.Warn().Err(err).Str("toEmail", to.Email).Msg("Notification email failed")
				atomic.AddInt64(&bad, 1)
				return
			}
			atomic.AddInt64(&ok, 1)
		}()
	}
	wg.Wait()
	return int(ok), int(bad)
}

func fanOutResult(sent, failed int) *dto.NotificationResult {
	total := sent + failed
	return &dto.NotificationResult{
		Success: true,
		Sent:    sent,
		Failed:  &failed,
		Total:   &total,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
