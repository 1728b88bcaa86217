package services

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/lifecycle"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/db"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/filestorage"
	"github.com/yigit/internportal/internal/pkg/validation"
)

// Reasons recorded in storage_cleanup
const (
	CleanupReasonUploadRolledBack  = "certificate transaction rolled back"
	CleanupReasonApplicationRemove = "application removed"
)

// UploadConfig bounds certificate uploads and download links
type UploadConfig struct {
	MaxBytes     int64
	SignedURLTTL time.Duration
}

// ApplicationService runs the application lifecycle: create, upload,
// mark complete, remove. Every write checks the caller and the derived
// state before touching the record store.
type ApplicationService struct {
	tx           db.Transactor
	applications repositories.IApplicationRepository
	certificates repositories.ICertificateRepository
	internships  repositories.IInternshipRepository
	cleanup      repositories.IStorageCleanupRepository
	store        filestorage.ObjectStore
	authz        *auth.AuthorizationService
	notifier     Notifier
	stats        StatsInvalidator
	cfg          UploadConfig
	now          func() time.Time
	logger       zerolog.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(
	tx db.Transactor,
	applications repositories.IApplicationRepository,
	certificates repositories.ICertificateRepository,
	internships repositories.IInternshipRepository,
	cleanup repositories.IStorageCleanupRepository,
	store filestorage.ObjectStore,
	authz *auth.AuthorizationService,
	notifier Notifier,
	stats StatsInvalidator,
	cfg UploadConfig,
	logger zerolog.Logger,
) *ApplicationService {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = filestorage.DefaultMaxUploadBytes
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = filestorage.DefaultSignedURLTTL
	}
	return &ApplicationService{
		tx:           tx,
		applications: applications,
		certificates: certificates,
		internships:  internships,
		cleanup:      cleanup,
		store:        store,
		authz:        authz,
		notifier:     notifier,
		stats:        stats,
		cfg:          cfg,
		now:          time.Now,
		logger:       logger,
	}
}

// CreateApplication marks an internship active for the calling student
func (s *ApplicationService) CreateApplication(ctx context.Context, caller auth.Caller, internshipID uuid.UUID) (*models.Application, error) {
	if err := s.authz.RequireRole(caller, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := lifecycle.Check(lifecycle.StateNone, lifecycle.EventCreate); err != nil {
		return nil, err
	}

	internship, err := s.internships.GetByID(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if !internship.IsActive {
		return nil, apperrors.NewConflictError("internship is no longer active")
	}

	app := &models.Application{
		StudentID:    caller.ID,
		InternshipID: internshipID,
		Status:       models.ApplicationPending,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, err
	}
	app.Internship = internship
	s.stats.Invalidate(ctx)
	return app, nil
}

// GetApplication returns one application visible to the caller
func (s *ApplicationService) GetApplication(ctx context.Context, caller auth.Caller, id uuid.UUID) (*models.Application, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanViewApplication(caller, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListMyApplications lists the caller's active internships, most recently applied first
func (s *ApplicationService) ListMyApplications(ctx context.Context, caller auth.Caller) ([]models.Application, error) {
	if err := s.authz.RequireRole(caller, models.RoleStudent); err != nil {
		return nil, err
	}
	return s.applications.List(ctx, repositories.ApplicationFilter{
		StudentID: &caller.ID,
		Statuses:  models.ActiveApplicationStatuses,
	})
}

// ListDepartmentApplications lists the progress of every student of a department
func (s *ApplicationService) ListDepartmentApplications(ctx context.Context, caller auth.Caller, departmentID uuid.UUID) ([]models.Application, error) {
	if err := s.authz.CanAccessDepartment(caller, &departmentID); err != nil {
		return nil, err
	}
	return s.applications.List(ctx, repositories.ApplicationFilter{StudentDepartmentID: &departmentID})
}

// UploadCertificate stores the file, then inserts the certificate and writes
// the internship dates in one transaction. If the transaction fails the file
// is deleted again; if that fails too the key is flagged for the sweeper.
func (s *ApplicationService) UploadCertificate(ctx context.Context, caller auth.Caller, applicationID uuid.UUID, startDate, endDate string, upload filestorage.Upload) (*models.Certificate, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireOwner(caller, app); err != nil {
		return nil, err
	}
	if err := lifecycle.Check(lifecycle.Derive(app, app.Certificate), lifecycle.EventUploadCertificate); err != nil {
		return nil, err
	}

	start, end, err := validation.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, apperrors.NewValidationError("start_date", err.Error())
	}
	mediaType, ext, err := filestorage.ValidateUpload(upload, s.cfg.MaxBytes)
	if err != nil {
		return nil, err
	}

	key := filestorage.ObjectKey(app.StudentID, app.ID, s.now(), ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(upload.Data), int64(len(upload.Data)), mediaType); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Certificate upload failed")
		return nil, apperrors.NewStorageError(err, "Failed to upload certificate")
	}

	cert := &models.Certificate{
		ApplicationID:  app.ID,
		StudentID:      app.StudentID,
		InternshipID:   app.InternshipID,
		CertificateURL: key,
		Status:         models.CertificatePending,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		apps := s.applications.WithTx(tx)
		certs := s.certificates.WithTx(tx)

		if err := apps.LockByID(ctx, app.ID); err != nil {
			return err
		}
		// state may have moved since the first read
		current, err := apps.GetByID(ctx, app.ID)
		if err != nil {
			return err
		}
		from := lifecycle.Derive(current, current.Certificate)
		if err := lifecycle.Check(from, lifecycle.EventUploadCertificate); err != nil {
			return err
		}

		if err := certs.Create(ctx, cert); err != nil {
			return err
		}
		return apps.UpdateDates(ctx, app.ID, start, end, lifecycle.StatusAfterUpload(from, current.Status))
	})
	if err != nil {
		s.compensate(key, err)
		return nil, err
	}

	s.stats.Invalidate(ctx)
	s.logger.Info().
		Str("applicationID", app.ID.String()).
		Str("certificateID", cert.ID.String()).
		Msg("Certificate uploaded")
	return cert, nil
}

// compensate removes an object whose rows were rolled back
func (s *ApplicationService) compensate(key string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error().Err(err).AnErr("cause", cause).Str("key", key).Msg("Compensating delete failed, flagging object")
		if flagErr := s.cleanup.Flag(ctx, key, CleanupReasonUploadRolledBack); flagErr != nil {
			s.logger.Error().Err(flagErr).Str("key", key).Msg("Failed to flag orphaned object")
		}
	}
}

// MarkComplete moves the application to completed and asks the
// department faculty to verify the certificate.
func (s *ApplicationService) MarkComplete(ctx context.Context, caller auth.Caller, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireOwner(caller, app); err != nil {
		return nil, err
	}
	if err := lifecycle.Check(lifecycle.Derive(app, app.Certificate), lifecycle.EventMarkComplete); err != nil {
		return nil, err
	}

	if err := s.applications.UpdateStatus(ctx, app.ID, models.ApplicationCompleted); err != nil {
		return nil, err
	}
	app.Status = models.ApplicationCompleted
	s.stats.Invalidate(ctx)

	if app.Student != nil && app.Student.DepartmentID != nil {
		req := dto.VerificationNotificationRequest{
			CertificateID: app.Certificate.ID.String(),
			StudentName:   app.Student.FullName,
			StudentEmail:  app.Student.Email,
			DepartmentID:  app.Student.DepartmentID.String(),
		}
		if app.Internship != nil {
			req.InternshipTitle = app.Internship.Title
			req.CompanyName = app.Internship.CompanyName
		}
		s.notifier.VerificationRequested(ctx, req)
	} else {
		s.logger.Warn().Str("applicationID", app.ID.String()).Msg("Student has no department, verification request not sent")
	}

	return app, nil
}

// RemoveApplication deletes an application that is not verified. Its
// certificate files are deleted afterwards; failures are flagged.
func (s *ApplicationService) RemoveApplication(ctx context.Context, caller auth.Caller, applicationID uuid.UUID) error {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := s.authz.RequireOwner(caller, app); err != nil {
		return err
	}
	if err := lifecycle.Check(lifecycle.Derive(app, app.Certificate), lifecycle.EventRemove); err != nil {
		return err
	}

	certs, err := s.certificates.ListByApplication(ctx, app.ID)
	if err != nil {
		return err
	}
	if err := s.applications.Delete(ctx, app.ID); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)

	for _, c := range certs {
		if err := s.store.Delete(ctx, c.CertificateURL); err != nil {
			s.logger.Warn().Err(err).Str("key", c.CertificateURL).Msg("Could not delete certificate file, flagging")
			if flagErr := s.cleanup.Flag(ctx, c.CertificateURL, CleanupReasonApplicationRemove); flagErr != nil {
				s.logger.Error().Err(flagErr).Str("key", c.CertificateURL).Msg("Failed to flag orphaned object")
			}
		}
	}
	return nil
}

// CertificateURL signs a download link for the canonical certificate
func (s *ApplicationService) CertificateURL(ctx context.Context, caller auth.Caller, applicationID uuid.UUID) (*dto.SignedURLResponse, error) {
	app, err := s.GetApplication(ctx, caller, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Certificate == nil {
		return nil, apperrors.ErrCertificateNotFound
	}

	url, err := s.store.SignedURL(ctx, app.Certificate.CertificateURL, s.cfg.SignedURLTTL)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "Failed to sign certificate URL")
	}
	return &dto.SignedURLResponse{URL: url, ExpiresAt: s.now().Add(s.cfg.SignedURLTTL)}, nil
}
