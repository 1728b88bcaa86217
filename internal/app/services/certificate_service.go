package services

import (
	"context"
	"fmt"
	"strings"
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
)

// UnknownCompany groups verified certificates whose internship has no company name
const UnknownCompany = "Unknown Company"

// CertificateService handles faculty review of certificates
type CertificateService struct {
	tx           db.Transactor
	certificates repositories.ICertificateRepository
	applications repositories.IApplicationRepository
	store        filestorage.ObjectStore
	authz        *auth.AuthorizationService
	stats        StatsInvalidator
	signedURLTTL time.Duration
	now          func() time.Time
	logger       zerolog.Logger
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(
	tx db.Transactor,
	certificates repositories.ICertificateRepository,
	applications repositories.IApplicationRepository,
	store filestorage.ObjectStore,
	authz *auth.AuthorizationService,
	stats StatsInvalidator,
	signedURLTTL time.Duration,
	logger zerolog.Logger,
) *CertificateService {
	if signedURLTTL <= 0 {
		signedURLTTL = filestorage.DefaultSignedURLTTL
	}
	return &CertificateService{
		tx:           tx,
		certificates: certificates,
		applications: applications,
		store:        store,
		authz:        authz,
		stats:        stats,
		signedURLTTL: signedURLTTL,
		now:          time.Now,
		logger:       logger,
	}
}

// reviewTarget runs inside tx. It locks the application behind the
// certificate, then re-reads both and checks that the caller may review it,
// that it is the canonical certificate, and that event may fire.
func (s *CertificateService) reviewTarget(ctx context.Context, tx pgx.Tx, caller auth.Caller, certificateID uuid.UUID, event lifecycle.Event) (*models.Certificate, *models.Application, error) {
	certs := s.certificates.WithTx(tx)
	apps := s.applications.WithTx(tx)

	cert, err := certs.GetByID(ctx, certificateID)
	if err != nil {
		return nil, nil, err
	}
	if err := apps.LockByID(ctx, cert.ApplicationID); err != nil {
		return nil, nil, err
	}
	// another review may have committed while we waited for the lock
	cert, err = certs.GetByID(ctx, certificateID)
	if err != nil {
		return nil, nil, err
	}
	app, err := apps.GetByID(ctx, cert.ApplicationID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.authz.CanReviewCertificate(caller, app.Student); err != nil {
		return nil, nil, err
	}
	if app.Certificate == nil || app.Certificate.ID != cert.ID {
		return nil, nil, fmt.Errorf("%w: certificate has been superseded by a newer upload", apperrors.ErrIllegalTransition)
	}
	if err := lifecycle.Check(lifecycle.Derive(app, cert), event); err != nil {
		return nil, nil, err
	}
	return cert, app, nil
}

// VerifyCertificate marks the certificate verified and the application completed
func (s *CertificateService) VerifyCertificate(ctx context.Context, caller auth.Caller, certificateID uuid.UUID) (*models.Certificate, error) {
	var cert *models.Certificate
	at := s.now()
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		target, app, err := s.reviewTarget(ctx, tx, caller, certificateID, lifecycle.EventVerify)
		if err != nil {
			return err
		}
		if err := s.certificates.WithTx(tx).MarkVerified(ctx, target.ID, caller.ID, at); err != nil {
			return err
		}
		cert = target
		if app.Status == models.ApplicationCompleted {
			return nil
		}
		return s.applications.WithTx(tx).UpdateStatus(ctx, app.ID, models.ApplicationCompleted)
	})
	if err != nil {
		return nil, err
	}

	cert.Status = models.CertificateVerified
	cert.VerifiedBy = &caller.ID
	cert.VerifiedAt = &at
	cert.RejectionReason = nil
	s.stats.Invalidate(ctx)

	s.logger.Info().
		Str("certificateID", cert.ID.String()).
		Str("verifiedBy", caller.ID.String()).
		Msg("Certificate verified")
	return cert, nil
}

// RejectCertificate marks the certificate rejected with a mandatory reason
func (s *CertificateService) RejectCertificate(ctx context.Context, caller auth.Caller, certificateID uuid.UUID, reason string) (*models.Certificate, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason", "rejection reason is required")
	}

	var cert *models.Certificate
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		target, _, err := s.reviewTarget(ctx, tx, caller, certificateID, lifecycle.EventReject)
		if err != nil {
			return err
		}
		if err := s.certificates.WithTx(tx).MarkRejected(ctx, target.ID, reason); err != nil {
			return err
		}
		cert = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	cert.Status = models.CertificateRejected
	cert.RejectionReason = &reason
	s.stats.Invalidate(ctx)

	s.logger.Info().
		Str("certificateID", cert.ID.String()).
		Str("rejectedBy", caller.ID.String()).
		Msg("Certificate rejected")
	return cert, nil
}

// CertificateCentre lists verified certificates of a department grouped by
// company, groups in order of their newest certificate.
func (s *CertificateService) CertificateCentre(ctx context.Context, caller auth.Caller, departmentID *uuid.UUID) ([]dto.CertificateCentreGroup, error) {
	if err := s.authz.RequireRole(caller, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}
	scope, err := s.authz.ScopeDepartment(caller, departmentID)
	if err != nil {
		return nil, err
	}

	rows, err := s.certificates.ListVerified(ctx, scope)
	if err != nil {
		return nil, err
	}

	groups := GroupByCompany(rows)
	for gi := range groups {
		for ci := range groups[gi].Certificates {
			entry := &groups[gi].Certificates[ci]
			url, err := s.store.SignedURL(ctx, entry.Certificate.CertificateURL, s.signedURLTTL)
			if err != nil {
				s.logger.Warn().Err(err).Str("key", entry.Certificate.CertificateURL).Msg("Could not sign certificate URL")
				continue
			}
			entry.DownloadURL = url
		}
	}
	return groups, nil
}

// GroupByCompany groups rows by company name keeping the input order
func GroupByCompany(rows []repositories.VerifiedCertificateRow) []dto.CertificateCentreGroup {
	groups := make([]dto.CertificateCentreGroup, 0)
	index := make(map[string]int)

	for i := range rows {
		row := rows[i]
		company := UnknownCompany
		if row.CompanyName != nil && strings.TrimSpace(*row.CompanyName) != "" {
			company = *row.CompanyName
		}
		gi, ok := index[company]
		if !ok {
			gi = len(groups)
			index[company] = gi
			groups = append(groups, dto.CertificateCentreGroup{CompanyName: company})
		}
		groups[gi].Certificates = append(groups[gi].Certificates, dto.CertificateCentreEntry{
			Certificate:     *dto.NewCertificateResponse(&row.Certificate),
			StudentName:     row.StudentName,
			StudentEmail:    row.StudentEmail,
			InternshipTitle: row.InternshipTitle,
		})
	}
	return groups
}
