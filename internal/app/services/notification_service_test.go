package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/email"
)

type capturePublisher struct {
	keys   []string
	values [][]byte
	err    error
}

func (p *capturePublisher) PublishMessage(_ context.Context, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

type notificationFixture struct {
	db         *memDB
	mailer     *recordingMailer
	department uuid.UUID
	internship *models.Internship
}

func newNotificationFixture(students, faculty int) *notificationFixture {
	f := &notificationFixture{db: newMemDB(), mailer: &recordingMailer{fail: map[string]bool{}}}
	f.department = f.db.addDepartment("Computer Science")
	var poster *models.Profile
	for i := 0; i < faculty; i++ {
		poster = f.db.addProfile(models.RoleFaculty, &f.department)
	}
	for i := 0; i < students; i++ {
		f.db.addProfile(models.RoleStudent, &f.department)
	}
	posterID := uuid.New()
	if poster != nil {
		posterID = poster.ID
	}
	f.internship = f.db.addInternship(f.department, posterID)
	return f
}

func (f *notificationFixture) service(publisher *capturePublisher) *NotificationService {
	if publisher == nil {
		return NewNotificationService(memProfiles{f.db}, memInternships{f.db}, f.mailer, nil, quietLogger())
	}
	return NewNotificationService(memProfiles{f.db}, memInternships{f.db}, f.mailer, publisher, quietLogger())
}

func (f *notificationFixture) internshipRequest() dto.InternshipNotificationRequest {
	return dto.InternshipNotificationRequest{InternshipID: f.internship.ID.String(), DepartmentID: f.department.String()}
}

func (f *notificationFixture) verificationRequest() dto.VerificationNotificationRequest {
	return dto.VerificationNotificationRequest{
		CertificateID:   uuid.NewString(),
		StudentName:     "Asha",
		StudentEmail:    "asha@college.edu",
		InternshipTitle: "Backend Intern",
		CompanyName:     "Acme",
		DepartmentID:    f.department.String(),
	}
}

func TestSendInternshipNotificationCountsFailures(t *testing.T) {
	f := newNotificationFixture(4, 1)
	for _, p := range f.db.profiles {
		if p.Role == models.RoleStudent {
			f.mailer.fail[p.Email] = true
			break
		}
	}

	res, err := f.service(nil).SendInternshipNotification(context.Background(), f.internshipRequest())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Sent)
	require.NotNil(t, res.Failed)
	require.NotNil(t, res.Total)
	assert.Equal(t, 1, *res.Failed)
	assert.Equal(t, 4, *res.Total)
	assert.Len(t, f.mailer.internship, 3)
}

func TestSendInternshipNotificationWithoutStudents(t *testing.T) {
	f := newNotificationFixture(0, 1)

	res, err := f.service(nil).SendInternshipNotification(context.Background(), f.internshipRequest())
	require.NoError(t, err)
	assert.Equal(t, "No students found in department", res.Message)
	assert.Equal(t, 0, res.Sent)
	assert.Nil(t, res.Total)
}

func TestSendInternshipNotificationValidation(t *testing.T) {
	f := newNotificationFixture(1, 1)
	svc := f.service(nil)
	ctx := context.Background()

	_, err := svc.SendInternshipNotification(ctx, dto.InternshipNotificationRequest{InternshipID: f.internship.ID.String()})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.SendInternshipNotification(ctx, dto.InternshipNotificationRequest{InternshipID: "x", DepartmentID: "y"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.SendInternshipNotification(ctx, dto.InternshipNotificationRequest{InternshipID: uuid.NewString(), DepartmentID: f.department.String()})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestSendVerificationNotification(t *testing.T) {
	f := newNotificationFixture(3, 2)

	res, err := f.service(nil).SendVerificationNotification(context.Background(), f.verificationRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, *res.Total)
	assert.Len(t, f.mailer.verification, 2)
	assert.Empty(t, f.mailer.internship)
}

func TestSendVerificationNotificationWithoutFaculty(t *testing.T) {
	f := newNotificationFixture(3, 0)

	res, err := f.service(nil).SendVerificationNotification(context.Background(), f.verificationRequest())
	require.NoError(t, err)
	assert.Equal(t, "No faculty found in department", res.Message)
}

func TestTriggersSendInlineWithoutPublisher(t *testing.T) {
	f := newNotificationFixture(2, 1)
	svc := f.service(nil)

	svc.InternshipPosted(context.Background(), f.internship)
	svc.VerificationRequested(context.Background(), f.verificationRequest())
	require.NoError(t, svc.Wait(context.Background()))

	assert.Len(t, f.mailer.internship, 2)
	assert.Len(t, f.mailer.verification, 1)
}

func TestTriggersPublishAndHandleMessage(t *testing.T) {
	f := newNotificationFixture(2, 1)
	pub := &capturePublisher{}
	svc := f.service(pub)
	ctx := context.Background()

	svc.InternshipPosted(ctx, f.internship)
	req := f.verificationRequest()
	svc.VerificationRequested(ctx, req)

	require.Len(t, pub.values, 2)
	assert.Equal(t, []string{f.internship.ID.String(), req.CertificateID}, pub.keys)
	assert.Empty(t, f.mailer.internship)
	assert.Empty(t, f.mailer.verification)

	var event notificationEvent
	require.NoError(t, json.Unmarshal(pub.values[0], &event))
	assert.Equal(t, EventInternshipPosted, event.Type)

	for i, v := range pub.values {
		require.NoError(t, svc.HandleMessage(ctx, []byte(pub.keys[i]), v))
	}
	assert.Len(t, f.mailer.internship, 2)
	assert.Len(t, f.mailer.verification, 1)
}

func TestPublishFailureFallsBackToInline(t *testing.T) {
	f := newNotificationFixture(2, 1)
	svc := f.service(&capturePublisher{err: errors.New("broker down")})

	svc.InternshipPosted(context.Background(), f.internship)
	require.NoError(t, svc.Wait(context.Background()))
	assert.Len(t, f.mailer.internship, 2)
}

// gatedMailer blocks every send until release is closed
type gatedMailer struct {
	recordingMailer
	release chan struct{}
}

func (m *gatedMailer) SendInternshipPosted(to email.Recipient, data email.InternshipPosted) error {
	<-m.release
	return m.recordingMailer.SendInternshipPosted(to, data)
}

func (m *gatedMailer) SendVerificationRequest(to email.Recipient, data email.VerificationRequest) error {
	<-m.release
	return m.recordingMailer.SendVerificationRequest(to, data)
}

func TestInlineSendDoesNotBlockTrigger(t *testing.T) {
	f := newNotificationFixture(2, 1)
	mailer := &gatedMailer{release: make(chan struct{})}
	svc := NewNotificationService(memProfiles{f.db}, memInternships{f.db}, mailer, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	triggered := make(chan struct{})
	go func() {
		svc.VerificationRequested(ctx, f.verificationRequest())
		close(triggered)
	}()

	select {
	case <-triggered:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger waited for the mail relay")
	}

	// the request finishing must not abort the send
	cancel()
	short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	assert.ErrorIs(t, svc.Wait(short), context.DeadlineExceeded)

	close(mailer.release)
	require.NoError(t, svc.Wait(context.Background()))
	assert.Len(t, mailer.verification, 1)
}

func TestHandleMessageRejectsBadEvents(t *testing.T) {
	svc := newNotificationFixture(1, 1).service(nil)
	ctx := context.Background()

	assert.Error(t, svc.HandleMessage(ctx, nil, []byte("{")))
	assert.Error(t, svc.HandleMessage(ctx, nil, []byte(`{"type":"unknown"}`)))
	assert.Error(t, svc.HandleMessage(ctx, nil, []byte(`{"type":"internship_posted"}`)))
}
