package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/db"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/dberrors"
	"github.com/yigit/internportal/internal/pkg/logger"
)

var certificateColumns = []string{
	"c.id", "c.application_id", "c.student_id", "c.internship_id", "c.certificate_url", "c.status",
	"c.rejection_reason", "c.uploaded_at", "c.verified_by", "c.verified_at",
}

// CertificateRepository handles database operations for certificates
type CertificateRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewCertificateRepository creates a new CertificateRepository
func NewCertificateRepository(conn db.DBTX) *CertificateRepository {
	return &CertificateRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy bound to tx
func (r *CertificateRepository) WithTx(tx pgx.Tx) ICertificateRepository {
	return &CertificateRepository{db: tx, sb: r.sb}
}

func certificateScanTargets(c *models.Certificate) []interface{} {
	return []interface{}{
		&c.ID, &c.ApplicationID, &c.StudentID, &c.InternshipID, &c.CertificateURL, &c.Status,
		&c.RejectionReason, &c.UploadedAt, &c.VerifiedBy, &c.VerifiedAt,
	}
}

// Create inserts a pending certificate
func (r *CertificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	if certificate.ID == uuid.Nil {
		certificate.ID = uuid.New()
	}
	if certificate.Status == "" {
		certificate.Status = models.CertificatePending
	}

	sql, args, err := r.sb.Insert("certificates").
		Columns("id", "application_id", "student_id", "internship_id", "certificate_url", "status").
		Values(certificate.ID, certificate.ApplicationID, certificate.StudentID, certificate.InternshipID,
			certificate.CertificateURL, certificate.Status).
		Suffix("RETURNING uploaded_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create certificate query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&certificate.UploadedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err, "") {
			return apperrors.ErrApplicationNotFound
		}
		logger.Error().Err(err).Str("applicationID", certificate.ApplicationID.String()).Msg("Error creating certificate")
		return fmt.Errorf("error creating certificate: %w", err)
	}
	return nil
}

// GetByID retrieves one certificate
func (r *CertificateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	sql, args, err := r.sb.Select(certificateColumns...).
		From("certificates c").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get certificate query: %w", err)
	}

	var c models.Certificate
	if err := r.db.QueryRow(ctx, sql, args...).Scan(certificateScanTargets(&c)...); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrCertificateNotFound
		}
		logger.Error().Err(err).Str("certificateID", id.String()).Msg("Error retrieving certificate")
		return nil, fmt.Errorf("error retrieving certificate: %w", err)
	}
	return &c, nil
}

// GetCanonical returns the latest certificate of an application, nil when it has none
func (r *CertificateRepository) GetCanonical(ctx context.Context, applicationID uuid.UUID) (*models.Certificate, error) {
	sql, args, err := r.sb.Select(certificateColumns...).
		From("certificates c").
		Where(squirrel.Eq{"c.application_id": applicationID}).
		OrderBy("c.uploaded_at DESC", "c.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build canonical certificate query: %w", err)
	}

	var c models.Certificate
	if err := r.db.QueryRow(ctx, sql, args...).Scan(certificateScanTargets(&c)...); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving canonical certificate: %w", err)
	}
	return &c, nil
}

// ListByApplication returns every certificate of an application, canonical first
func (r *CertificateRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Certificate, error) {
	sql, args, err := r.sb.Select(certificateColumns...).
		From("certificates c").
		Where(squirrel.Eq{"c.application_id": applicationID}).
		OrderBy("c.uploaded_at DESC", "c.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list certificates query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing certificates: %w", err)
	}
	defer rows.Close()

	certificates := make([]models.Certificate, 0)
	for rows.Next() {
		var c models.Certificate
		if err := rows.Scan(certificateScanTargets(&c)...); err != nil {
			return nil, fmt.Errorf("error scanning certificate: %w", err)
		}
		certificates = append(certificates, c)
	}
	return certificates, rows.Err()
}

// MarkVerified stamps the verifier and clears any rejection reason. Only a
// pending certificate can be verified.
func (r *CertificateRepository) MarkVerified(ctx context.Context, id, verifierID uuid.UUID, at time.Time) error {
	sql, args, err := r.sb.Update("certificates").
		Set("status", models.CertificateVerified).
		Set("verified_by", verifierID).
		Set("verified_at", at).
		Set("rejection_reason", nil).
		Where(squirrel.Eq{"id": id, "status": models.CertificatePending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build verify certificate query: %w", err)
	}
	return r.execReview(ctx, sql, args, id)
}

// MarkRejected stores the reason verbatim. Only a pending certificate can be rejected.
func (r *CertificateRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string) error {
	sql, args, err := r.sb.Update("certificates").
		Set("status", models.CertificateRejected).
		Set("rejection_reason", reason).
		Where(squirrel.Eq{"id": id, "status": models.CertificatePending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reject certificate query: %w", err)
	}
	return r.execReview(ctx, sql, args, id)
}

// ListVerified returns verified certificates, newest first, optionally for one department
func (r *CertificateRepository) ListVerified(ctx context.Context, departmentID *uuid.UUID) ([]VerifiedCertificateRow, error) {
	columns := append(append([]string{}, certificateColumns...), "p.full_name", "p.email", "i.title", "i.company_name")
	q := r.sb.Select(columns...).
		From("certificates c").
		Join("profiles p ON p.id = c.student_id").
		Join("internships i ON i.id = c.internship_id").
		Where(squirrel.Eq{"c.status": models.CertificateVerified})
	if departmentID != nil {
		q = q.Where(squirrel.Eq{"p.department_id": *departmentID})
	}

	sql, args, err := q.OrderBy("c.uploaded_at DESC", "c.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build verified certificates query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing verified certificates")
		return nil, fmt.Errorf("error listing verified certificates: %w", err)
	}
	defer rows.Close()

	result := make([]VerifiedCertificateRow, 0)
	for rows.Next() {
		var row VerifiedCertificateRow
		targets := append(certificateScanTargets(&row.Certificate),
			&row.StudentName, &row.StudentEmail, &row.InternshipTitle, &row.CompanyName)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("error scanning verified certificate: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// CountVerified counts verified certificates across all departments
func (r *CertificateRepository) CountVerified(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM certificates WHERE status = $1", models.CertificateVerified).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting verified certificates: %w", err)
	}
	return count, nil
}

// execReview runs a review update guarded on the pending status
func (r *CertificateRepository) execReview(ctx context.Context, sql string, args []interface{}, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("certificateID", id.String()).Msg("Error reviewing certificate")
		return fmt.Errorf("error reviewing certificate: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: certificate is no longer pending review", apperrors.ErrIllegalTransition)
	}
	return nil
}
