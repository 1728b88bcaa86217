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

// canonicalCertificateJoin attaches the latest certificate of each application
const canonicalCertificateJoin = `LATERAL (
	SELECT * FROM certificates c
	WHERE c.application_id = a.id
	ORDER BY c.uploaded_at DESC, c.id DESC
	LIMIT 1
) c ON true`

var applicationColumns = []string{
	"a.id", "a.student_id", "a.internship_id", "a.status", "a.applied_at", "a.start_date", "a.end_date",
	"i.id", "i.company_name", "i.title", "i.domain", "i.duration", "i.location", "i.department_id",
	"i.faculty_id", "i.internship_link", "i.description", "i.stipend", "i.is_active", "i.created_at",
	"p.id", "p.email", "p.full_name", "p.role", "p.department_id", "p.batch",
	"c.id", "c.application_id", "c.student_id", "c.internship_id", "c.certificate_url", "c.status",
	"c.rejection_reason", "c.uploaded_at", "c.verified_by", "c.verified_at",
}

// ApplicationRepository handles database operations for applications
type ApplicationRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(conn db.DBTX) *ApplicationRepository {
	return &ApplicationRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy bound to tx
func (r *ApplicationRepository) WithTx(tx pgx.Tx) IApplicationRepository {
	return &ApplicationRepository{db: tx, sb: r.sb}
}

func (r *ApplicationRepository) selectApplications() squirrel.SelectBuilder {
	return r.sb.Select(applicationColumns...).
		From("applications a").
		Join("internships i ON i.id = a.internship_id").
		Join("profiles p ON p.id = a.student_id").
		LeftJoin(canonicalCertificateJoin)
}

// nullableCertificate receives the LEFT JOIN LATERAL columns
type nullableCertificate struct {
	ID              *uuid.UUID
	ApplicationID   *uuid.UUID
	StudentID       *uuid.UUID
	InternshipID    *uuid.UUID
	CertificateURL  *string
	Status          *models.CertificateStatus
	RejectionReason *string
	UploadedAt      *time.Time
	VerifiedBy      *uuid.UUID
	VerifiedAt      *time.Time
}

func (n nullableCertificate) toModel() *models.Certificate {
	if n.ID == nil {
		return nil
	}
	cert := &models.Certificate{
		ID:              *n.ID,
		RejectionReason: n.RejectionReason,
		VerifiedBy:      n.VerifiedBy,
		VerifiedAt:      n.VerifiedAt,
	}
	if n.ApplicationID != nil {
		cert.ApplicationID = *n.ApplicationID
	}
	if n.StudentID != nil {
		cert.StudentID = *n.StudentID
	}
	if n.InternshipID != nil {
		cert.InternshipID = *n.InternshipID
	}
	if n.CertificateURL != nil {
		cert.CertificateURL = *n.CertificateURL
	}
	if n.Status != nil {
		cert.Status = *n.Status
	}
	if n.UploadedAt != nil {
		cert.UploadedAt = *n.UploadedAt
	}
	return cert
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	var i models.Internship
	var p models.Profile
	var c nullableCertificate

	err := row.Scan(
		&a.ID, &a.StudentID, &a.InternshipID, &a.Status, &a.AppliedAt, &a.StartDate, &a.EndDate,
		&i.ID, &i.CompanyName, &i.Title, &i.Domain, &i.Duration, &i.Location, &i.DepartmentID,
		&i.FacultyID, &i.InternshipLink, &i.Description, &i.Stipend, &i.IsActive, &i.CreatedAt,
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.DepartmentID, &p.Batch,
		&c.ID, &c.ApplicationID, &c.StudentID, &c.InternshipID, &c.CertificateURL, &c.Status,
		&c.RejectionReason, &c.UploadedAt, &c.VerifiedBy, &c.VerifiedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Skills = []string{}
	a.Internship = &i
	a.Student = &p
	a.Certificate = c.toModel()
	return &a, nil
}

// Create inserts an application; a student may hold one per internship
func (r *ApplicationRepository) Create(ctx context.Context, application *models.Application) error {
	if application.ID == uuid.Nil {
		application.ID = uuid.New()
	}
	if application.Status == "" {
		application.Status = models.ApplicationPending
	}

	sql, args, err := r.sb.Insert("applications").
		Columns("id", "student_id", "internship_id", "status").
		Values(application.ID, application.StudentID, application.InternshipID, application.Status).
		Suffix("RETURNING applied_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&application.AppliedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "applications_student_id_internship_id_key") {
			return apperrors.ErrApplicationExists
		}
		if dberrors.IsForeignKeyViolation(err, "applications_internship_id_fkey") {
			return apperrors.ErrInternshipNotFound
		}
		logger.Error().Err(err).
			Str("studentID", application.StudentID.String()).
			Str("internshipID", application.InternshipID.String()).
			Msg("Error creating application")
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

// GetByID retrieves an application with its internship, student and canonical certificate
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	sql, args, err := r.selectApplications().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	application, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrApplicationNotFound
		}
		logger.Error().Err(err).Str("applicationID", id.String()).Msg("Error retrieving application")
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}
	return application, nil
}

// LockByID takes a row lock on the application for the rest of the transaction
func (r *ApplicationRepository) LockByID(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.db.QueryRow(ctx, "SELECT id FROM applications WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return apperrors.ErrApplicationNotFound
		}
		return fmt.Errorf("error locking application: %w", err)
	}
	return nil
}

// List returns matching applications, most recently applied first
func (r *ApplicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error) {
	q := r.selectApplications()
	if filter.StudentID != nil {
		q = q.Where(squirrel.Eq{"a.student_id": *filter.StudentID})
	}
	if filter.InternshipID != nil {
		q = q.Where(squirrel.Eq{"a.internship_id": *filter.InternshipID})
	}
	if filter.StudentDepartmentID != nil {
		q = q.Where(squirrel.Eq{"p.department_id": *filter.StudentDepartmentID})
	}
	if filter.InternshipFacultyID != nil {
		q = q.Where(squirrel.Eq{"i.faculty_id": *filter.InternshipFacultyID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(squirrel.Eq{"a.status": statuses})
	}

	sql, args, err := q.OrderBy("a.applied_at DESC", "a.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing applications")
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	defer rows.Close()

	applications := make([]models.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning application: %w", err)
		}
		applications = append(applications, *a)
	}
	return applications, rows.Err()
}

// UpdateStatus sets the raw application status
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	sql, args, err := r.sb.Update("applications").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update application status query: %w", err)
	}
	return r.execOne(ctx, sql, args, id)
}

// UpdateDates stores the internship period and the status after an upload
func (r *ApplicationRepository) UpdateDates(ctx context.Context, id uuid.UUID, start, end time.Time, status models.ApplicationStatus) error {
	sql, args, err := r.sb.Update("applications").
		Set("start_date", start).
		Set("end_date", end).
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update application dates query: %w", err)
	}
	return r.execOne(ctx, sql, args, id)
}

// Delete removes an application; its certificates cascade
func (r *ApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "DELETE FROM applications WHERE id = $1", []interface{}{id}, id)
}

// DeleteByInternship removes every application of an internship
func (r *ApplicationRepository) DeleteByInternship(ctx context.Context, internshipID uuid.UUID) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, "DELETE FROM applications WHERE internship_id = $1", internshipID)
	if err != nil {
		logger.Error().Err(err).Str("internshipID", internshipID.String()).Msg("Error deleting internship applications")
		return 0, fmt.Errorf("error deleting applications: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *ApplicationRepository) execOne(ctx context.Context, sql string, args []interface{}, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("applicationID", id.String()).Msg("Error writing application")
		return fmt.Errorf("error writing application: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}
