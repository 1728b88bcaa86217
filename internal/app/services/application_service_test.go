package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/app/status"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/filestorage"
)

type lifecycleHarness struct {
	db       *memDB
	store    *memObjectStore
	notifier *mockNotifier
	stats    *countingStats
	apps     *ApplicationService
	certs    *CertificateService

	department uuid.UUID
	student    *models.Profile
	faculty    *models.Profile
	internship *models.Internship
}

func newLifecycleHarness(t *testing.T) *lifecycleHarness {
	t.Helper()
	h := &lifecycleHarness{
		db:       newMemDB(),
		store:    newMemObjectStore(),
		notifier: &mockNotifier{},
		stats:    &countingStats{},
	}
	authz := auth.NewAuthorizationService(memProfiles{h.db}, false)
	h.apps = NewApplicationService(fakeTx{}, memApplications{h.db}, memCertificates{h.db}, memInternships{h.db}, memCleanup{h.db},
		h.store, authz, h.notifier, h.stats, UploadConfig{}, quietLogger())
	h.apps.now = func() time.Time { return time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC) }
	h.certs = NewCertificateService(fakeTx{}, memCertificates{h.db}, memApplications{h.db}, h.store, authz, h.stats, time.Hour, quietLogger())

	h.department = h.db.addDepartment("Computer Science")
	h.student = h.db.addProfile(models.RoleStudent, &h.department)
	h.faculty = h.db.addProfile(models.RoleFaculty, &h.department)
	h.internship = h.db.addInternship(h.department, h.faculty.ID)
	return h
}

func (h *lifecycleHarness) pdf() filestorage.Upload {
	return filestorage.Upload{Filename: "certificate.pdf", ContentType: "application/pdf", Data: pdfBytes}
}

func (h *lifecycleHarness) reload(t *testing.T, id uuid.UUID) *models.Application {
	t.Helper()
	app, err := memApplications{h.db}.GetByID(context.Background(), id)
	require.NoError(t, err)
	return app
}

func (h *lifecycleHarness) expectVerificationRequest() {
	h.notifier.On("VerificationRequested", mock.Anything, mock.MatchedBy(func(req dto.VerificationNotificationRequest) bool {
		return req.DepartmentID == h.department.String() && req.StudentEmail == h.student.Email
	})).Return().Once()
}

func TestCreateApplication(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()

	app, err := h.apps.CreateApplication(ctx, callerOf(h.student), h.internship.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, h.student.ID, app.StudentID)
	assert.Equal(t, 1, h.stats.invalidated)

	_, err = h.apps.CreateApplication(ctx, callerOf(h.student), h.internship.ID)
	assert.ErrorIs(t, err, apperrors.ErrApplicationExists)

	_, err = h.apps.CreateApplication(ctx, callerOf(h.faculty), h.internship.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCreateApplicationRejectsInactiveInternship(t *testing.T) {
	h := newLifecycleHarness(t)
	h.db.internships[h.internship.ID].IsActive = false

	_, err := h.apps.CreateApplication(context.Background(), callerOf(h.student), h.internship.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUploadVerifyFlow(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	// upload
	cert, err := h.apps.UploadCertificate(ctx, callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	require.NoError(t, err)
	assert.Equal(t, models.CertificatePending, cert.Status)
	assert.True(t, h.store.has(cert.CertificateURL))

	current := h.reload(t, app.ID)
	require.NotNil(t, current.StartDate)
	assert.Equal(t, "2024-01-01", current.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", current.EndDate.Format("2006-01-02"))
	assert.Equal(t, status.Projection{Bucket: status.BucketActive, Label: status.LabelActive}, status.ProjectApplication(*current))

	// mark complete
	h.expectVerificationRequest()
	done, err := h.apps.MarkComplete(ctx, callerOf(h.student), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationCompleted, done.Status)
	h.notifier.AssertExpectations(t)

	current = h.reload(t, app.ID)
	assert.Equal(t, status.Projection{Bucket: status.BucketActive, Label: status.LabelAwaitingVerification}, status.ProjectApplication(*current))

	// verify
	verified, err := h.certs.VerifyCertificate(ctx, callerOf(h.faculty), cert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateVerified, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, h.faculty.ID, *verified.VerifiedBy)
	assert.NotNil(t, verified.VerifiedAt)

	stored := h.db.certificates[cert.ID]
	assert.Equal(t, models.CertificateVerified, stored.Status)
	assert.Equal(t, h.faculty.ID, *stored.VerifiedBy)

	current = h.reload(t, app.ID)
	assert.Equal(t, status.Projection{Bucket: status.BucketCompleted, Label: status.LabelCompleted}, status.ProjectApplication(*current))
}

func TestRejectKeepsApplicationActive(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	cert, err := h.apps.UploadCertificate(ctx, callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	require.NoError(t, err)
	h.expectVerificationRequest()
	_, err = h.apps.MarkComplete(ctx, callerOf(h.student), app.ID)
	require.NoError(t, err)

	rejected, err := h.certs.RejectCertificate(ctx, callerOf(h.faculty), cert.ID, "illegible scan")
	require.NoError(t, err)
	assert.Equal(t, models.CertificateRejected, rejected.Status)
	require.NotNil(t, h.db.certificates[cert.ID].RejectionReason)
	assert.Equal(t, "illegible scan", *h.db.certificates[cert.ID].RejectionReason)

	current := h.reload(t, app.ID)
	assert.Equal(t, status.BucketActive, status.ProjectApplication(*current).Bucket)
}

func TestRejectRequiresReason(t *testing.T) {
	h := newLifecycleHarness(t)
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)
	cert := h.db.addCertificate(app, models.CertificatePending)

	_, err := h.certs.RejectCertificate(context.Background(), callerOf(h.faculty), cert.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, models.CertificatePending, h.db.certificates[cert.ID].Status)
}

func TestRejectedCertificateCannotBeVerified(t *testing.T) {
	h := newLifecycleHarness(t)
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	cert := h.db.addCertificate(app, models.CertificateRejected)

	_, err := h.certs.VerifyCertificate(context.Background(), callerOf(h.faculty), cert.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Equal(t, models.CertificateRejected, h.db.certificates[cert.ID].Status)
}

func TestReuploadAfterRejectionCanBeVerified(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	old := h.db.addCertificate(app, models.CertificateRejected)

	fresh, err := h.apps.UploadCertificate(ctx, callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, h.db.applications[app.ID].Status)

	// the superseded certificate is no longer reviewable
	_, err = h.certs.VerifyCertificate(ctx, callerOf(h.faculty), old.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)

	_, err = h.certs.VerifyCertificate(ctx, callerOf(h.faculty), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationCompleted, h.db.applications[app.ID].Status)
}

func TestReviewOutsideDepartmentIsForbidden(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	other := h.db.addDepartment("Mechanical Engineering")
	outsider := h.db.addProfile(models.RoleFaculty, &other)
	unassigned := h.db.addProfile(models.RoleFaculty, nil)

	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	cert := h.db.addCertificate(app, models.CertificatePending)

	for _, caller := range []*models.Profile{outsider, unassigned} {
		_, err := h.certs.VerifyCertificate(ctx, callerOf(caller), cert.ID)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

		_, err = h.certs.RejectCertificate(ctx, callerOf(caller), cert.ID, "not mine")
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	}
	assert.Equal(t, models.CertificatePending, h.db.certificates[cert.ID].Status)

	admin := h.db.addProfile(models.RoleAdmin, nil)
	_, err := h.certs.VerifyCertificate(ctx, callerOf(admin), cert.ID)
	assert.NoError(t, err)
}

func TestUploadRequiresOwner(t *testing.T) {
	h := newLifecycleHarness(t)
	other := h.db.addProfile(models.RoleStudent, &h.department)
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	_, err := h.apps.UploadCertificate(context.Background(), callerOf(other), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Empty(t, h.store.objects)
}

func TestUploadValidatesBeforeStoring(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	_, err := h.apps.UploadCertificate(ctx, callerOf(h.student), app.ID, "2024-03-01", "2024-01-01", h.pdf())
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = h.apps.UploadCertificate(ctx, callerOf(h.student), app.ID, "2024-01-01", "2024-03-01",
		filestorage.Upload{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("just some text")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidMediaType)

	assert.Empty(t, h.store.objects)
	assert.Empty(t, h.db.certificates)
}

func TestUploadRefusedAfterVerification(t *testing.T) {
	h := newLifecycleHarness(t)
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	h.db.addCertificate(app, models.CertificateVerified)

	_, err := h.apps.UploadCertificate(context.Background(), callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
}

func TestUploadStorageFailure(t *testing.T) {
	h := newLifecycleHarness(t)
	h.store.failPut = errors.New("bucket unavailable")
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	_, err := h.apps.UploadCertificate(context.Background(), callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	assert.ErrorIs(t, err, apperrors.ErrStorage)
	assert.Empty(t, h.db.certificates)
	assert.Nil(t, h.db.applications[app.ID].StartDate)
}

func TestUploadRollbackDeletesObject(t *testing.T) {
	h := newLifecycleHarness(t)
	boom := errors.New("insert failed")
	h.db.failCertificateCreate = boom
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	_, err := h.apps.UploadCertificate(context.Background(), callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, h.store.deletes, 1)
	assert.Empty(t, h.store.objects)
	assert.Empty(t, h.db.cleanup)
	assert.Equal(t, 0, h.stats.invalidated)
}

func TestUploadRollbackFlagsObjectWhenDeleteFails(t *testing.T) {
	h := newLifecycleHarness(t)
	h.db.failCertificateCreate = errors.New("insert failed")
	h.store.failDelete = errors.New("bucket unavailable")
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	_, err := h.apps.UploadCertificate(context.Background(), callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	require.Error(t, err)
	require.Len(t, h.db.cleanup, 1)
	assert.Equal(t, h.store.deletes[0], h.db.cleanup[0].ObjectKey)
	assert.Equal(t, CleanupReasonUploadRolledBack, h.db.cleanup[0].Reason)
}

func TestMarkCompleteRequiresCertificate(t *testing.T) {
	h := newLifecycleHarness(t)
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	_, err := h.apps.MarkComplete(context.Background(), callerOf(h.student), app.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	h.notifier.AssertNotCalled(t, "VerificationRequested", mock.Anything, mock.Anything)
}

func TestRemoveApplication(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)
	cert, err := h.apps.UploadCertificate(ctx, callerOf(h.student), app.ID, "2024-01-01", "2024-03-01", h.pdf())
	require.NoError(t, err)

	h.store.failDelete = errors.New("bucket unavailable")
	require.NoError(t, h.apps.RemoveApplication(ctx, callerOf(h.student), app.ID))

	assert.NotContains(t, h.db.applications, app.ID)
	assert.NotContains(t, h.db.certificates, cert.ID)
	require.Len(t, h.db.cleanup, 1)
	assert.Equal(t, CleanupReasonApplicationRemove, h.db.cleanup[0].Reason)
}

func TestRemoveVerifiedApplicationRefused(t *testing.T) {
	h := newLifecycleHarness(t)
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	h.db.addCertificate(app, models.CertificateVerified)

	err := h.apps.RemoveApplication(context.Background(), callerOf(h.student), app.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Contains(t, h.db.applications, app.ID)
}

func TestListMyApplicationsExcludesRejected(t *testing.T) {
	h := newLifecycleHarness(t)
	second := h.db.addInternship(h.department, h.faculty.ID)
	h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)
	h.db.addApplication(h.student.ID, second.ID, models.ApplicationRejected)

	apps, err := h.apps.ListMyApplications(context.Background(), callerOf(h.student))
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, h.internship.ID, apps[0].InternshipID)
}

func TestListDepartmentApplicationsScoped(t *testing.T) {
	h := newLifecycleHarness(t)
	other := h.db.addDepartment("Mechanical Engineering")
	outsider := h.db.addProfile(models.RoleFaculty, &other)
	h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	apps, err := h.apps.ListDepartmentApplications(context.Background(), callerOf(h.faculty), h.department)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	_, err = h.apps.ListDepartmentApplications(context.Background(), callerOf(outsider), h.department)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCertificateURL(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationPending)

	_, err := h.apps.CertificateURL(ctx, callerOf(h.student), app.ID)
	assert.ErrorIs(t, err, apperrors.ErrCertificateNotFound)

	cert := h.db.addCertificate(app, models.CertificatePending)
	signed, err := h.apps.CertificateURL(ctx, callerOf(h.faculty), app.ID)
	require.NoError(t, err)
	assert.Contains(t, signed.URL, cert.CertificateURL)
	assert.Equal(t, h.apps.now().Add(filestorage.DefaultSignedURLTTL), signed.ExpiresAt)
}

func TestCertificateCentreGroupsByCompany(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	other := h.db.addDepartment("Mechanical Engineering")
	outsiderStudent := h.db.addProfile(models.RoleStudent, &other)

	globex := h.db.addInternship(h.department, h.faculty.ID)
	globex.CompanyName = "Globex"
	foreign := h.db.addInternship(other, h.faculty.ID)

	a1 := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	h.db.addCertificate(a1, models.CertificateVerified)
	a2 := h.db.addApplication(h.student.ID, globex.ID, models.ApplicationCompleted)
	h.db.addCertificate(a2, models.CertificateVerified)
	a3 := h.db.addApplication(outsiderStudent.ID, foreign.ID, models.ApplicationCompleted)
	h.db.addCertificate(a3, models.CertificateVerified)

	groups, err := h.certs.CertificateCentre(ctx, callerOf(h.faculty), nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Globex", groups[0].CompanyName)
	assert.Equal(t, "Acme", groups[1].CompanyName)
	assert.NotEmpty(t, groups[0].Certificates[0].DownloadURL)

	_, err = h.certs.CertificateCentre(ctx, callerOf(h.student), nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestGroupByCompany(t *testing.T) {
	row := func(company *string, student string) repositories.VerifiedCertificateRow {
		return repositories.VerifiedCertificateRow{
			Certificate: models.Certificate{ID: uuid.New(), Status: models.CertificateVerified},
			StudentName: student,
			CompanyName: company,
		}
	}
	name := func(s string) *string { return &s }

	groups := GroupByCompany([]repositories.VerifiedCertificateRow{
		row(name("Acme"), "a"),
		row(nil, "b"),
		row(name("Globex"), "c"),
		row(name("Acme"), "d"),
		row(name("  "), "e"),
	})
	require.Len(t, groups, 3)
	assert.Equal(t, "Acme", groups[0].CompanyName)
	assert.Equal(t, UnknownCompany, groups[1].CompanyName)
	assert.Equal(t, "Globex", groups[2].CompanyName)

	var acme []string
	for _, c := range groups[0].Certificates {
		acme = append(acme, c.StudentName)
	}
	assert.Equal(t, []string{"a", "d"}, acme)
	assert.Len(t, groups[1].Certificates, 2)

	assert.Empty(t, GroupByCompany(nil))
}
