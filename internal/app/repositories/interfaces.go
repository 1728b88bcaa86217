package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/internportal/internal/app/models"
)

// IDepartmentRepository persists departments
type IDepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Department, error)
	GetAll(ctx context.Context) ([]*models.Department, error)
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// ProfilePatch lists profile columns to change; nil fields are left untouched
type ProfilePatch struct {
	FullName     *string
	Batch        *string
	DepartmentID *uuid.UUID
	Phone        *string
	Bio          *string
	Skills       []string
	ResumeURL    *string
}

// IsEmpty reports whether the patch changes nothing
func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.Batch == nil && p.DepartmentID == nil &&
		p.Phone == nil && p.Bio == nil && p.Skills == nil && p.ResumeURL == nil
}

// IProfileRepository persists profiles and their credentials
type IProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	ListByDepartmentAndRole(ctx context.Context, departmentID uuid.UUID, role models.RoleType) ([]*models.Profile, error)
	CountByRole(ctx context.Context, role models.RoleType, departmentID *uuid.UUID) (int, error)
	Patch(ctx context.Context, id uuid.UUID, patch ProfilePatch) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InternshipFilter narrows internship queries
type InternshipFilter struct {
	DepartmentID *uuid.UUID
	FacultyID    *uuid.UUID
	ActiveOnly   bool
	Offset       uint64
	Limit        int // 0 means no limit
}

// IInternshipRepository persists internships
type IInternshipRepository interface {
	WithTx(tx pgx.Tx) IInternshipRepository
	Create(ctx context.Context, internship *models.Internship) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Internship, error)
	List(ctx context.Context, filter InternshipFilter) ([]*models.Internship, int64, error)
	Update(ctx context.Context, internship *models.Internship) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ApplicationFilter narrows application queries. Every set field must match.
type ApplicationFilter struct {
	StudentID           *uuid.UUID
	InternshipID        *uuid.UUID
	StudentDepartmentID *uuid.UUID
	InternshipFacultyID *uuid.UUID
	Statuses            []models.ApplicationStatus
}

// IApplicationRepository persists applications. Reads attach the internship,
// a student summary and the canonical certificate.
type IApplicationRepository interface {
	WithTx(tx pgx.Tx) IApplicationRepository
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	LockByID(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error
	UpdateDates(ctx context.Context, id uuid.UUID, start, end time.Time, status models.ApplicationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByInternship(ctx context.Context, internshipID uuid.UUID) (int64, error)
}

// VerifiedCertificateRow is a verified certificate with the names shown in the certificate centre
type VerifiedCertificateRow struct {
	Certificate     models.Certificate
	StudentName     string
	StudentEmail    string
	InternshipTitle string
	CompanyName     *string
}

// ICertificateRepository persists certificates
type ICertificateRepository interface {
	WithTx(tx pgx.Tx) ICertificateRepository
	Create(ctx context.Context, certificate *models.Certificate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error)
	GetCanonical(ctx context.Context, applicationID uuid.UUID) (*models.Certificate, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Certificate, error)
	MarkVerified(ctx context.Context, id, verifierID uuid.UUID, at time.Time) error
	MarkRejected(ctx context.Context, id uuid.UUID, reason string) error
	ListVerified(ctx context.Context, departmentID *uuid.UUID) ([]VerifiedCertificateRow, error)
	CountVerified(ctx context.Context) (int, error)
}

// ITokenRepository persists refresh tokens
type ITokenRepository interface {
	CreateToken(ctx context.Context, token string, userID uuid.UUID, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (uuid.UUID, time.Time, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// IStorageCleanupRepository records object keys no row references
type IStorageCleanupRepository interface {
	Flag(ctx context.Context, objectKey, reason string) error
	ListPending(ctx context.Context, limit uint64) ([]models.StorageCleanup, error)
	MarkProcessed(ctx context.Context, id int64) error
}
