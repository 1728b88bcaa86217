package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/dberrors"
	"github.com/yigit/internportal/internal/pkg/logger"
)

var profileColumns = []string{
	"p.id", "p.email", "p.password_hash", "p.full_name", "p.role", "p.department_id",
	"p.batch", "p.phone", "p.bio", "p.skills", "p.resume_url", "p.email_confirmed",
	"p.created_at", "p.updated_at",
	"d.id", "d.name", "d.description", "d.created_at",
}

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProfileRepository) selectProfiles() squirrel.SelectBuilder {
	return r.sb.Select(profileColumns...).
		From("profiles p").
		LeftJoin("departments d ON d.id = p.department_id")
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var deptID *uuid.UUID
	var deptName, deptDescription *string
	var deptCreatedAt *time.Time

	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Role, &p.DepartmentID,
		&p.Batch, &p.Phone, &p.Bio, &p.Skills, &p.ResumeURL, &p.EmailConfirmed,
		&p.CreatedAt, &p.UpdatedAt,
		&deptID, &deptName, &deptDescription, &deptCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deptID != nil {
		p.Department = &models.Department{ID: *deptID, Description: deptDescription}
		if deptName != nil {
			p.Department.Name = *deptName
		}
		if deptCreatedAt != nil {
			p.Department.CreatedAt = *deptCreatedAt
		}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}

	return &p, nil
}

// Create inserts a profile. The ID is generated when unset.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}

	sql, args, err := r.sb.Insert("profiles").
		Columns("id", "email", "password_hash", "full_name", "role", "department_id",
			"batch", "phone", "bio", "skills", "resume_url", "email_confirmed").
		Values(profile.ID, profile.Email, profile.PasswordHash, profile.FullName, profile.Role, profile.DepartmentID,
			profile.Batch, profile.Phone, profile.Bio, profile.Skills, profile.ResumeURL, profile.EmailConfirmed).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create profile SQL")
		return fmt.Errorf("failed to build create profile query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "profiles_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err, "profiles_department_id_fkey") {
			return apperrors.ErrDepartmentNotFound
		}
		logger.Error().Err(err).Str("email", profile.Email).Msg("Error executing create profile query")
		return fmt.Errorf("error creating profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile with its department
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id})
}

// GetByEmail retrieves a profile by its lower-cased email
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.getOne(ctx, squirrel.Eq{"p.email": email})
}

func (r *ProfileRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Profile, error) {
	sql, args, err := r.selectProfiles().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}

	profile, err := scanProfile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning profile row")
		return nil, fmt.Errorf("error retrieving profile: %w", err)
	}
	return profile, nil
}

// ListByDepartmentAndRole lists profiles of one role in a department ordered by name
func (r *ProfileRepository) ListByDepartmentAndRole(ctx context.Context, departmentID uuid.UUID, role models.RoleType) ([]*models.Profile, error) {
	sql, args, err := r.selectProfiles().
		Where(squirrel.Eq{"p.department_id": departmentID, "p.role": role}).
		OrderBy("p.full_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list profiles query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("departmentID", departmentID.String()).Msg("Error listing profiles")
		return nil, fmt.Errorf("error listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// CountByRole counts profiles of one role, optionally in one department
func (r *ProfileRepository) CountByRole(ctx context.Context, role models.RoleType, departmentID *uuid.UUID) (int, error) {
	q := r.sb.Select("COUNT(*)").From("profiles").Where(squirrel.Eq{"role": role})
	if departmentID != nil {
		q = q.Where(squirrel.Eq{"department_id": *departmentID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count profiles query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting profiles: %w", err)
	}
	return count, nil
}

// Patch updates the non-nil fields of patch
func (r *ProfileRepository) Patch(ctx context.Context, id uuid.UUID, patch ProfilePatch) error {
	if patch.IsEmpty() {
		return nil
	}

	q := r.sb.Update("profiles").Set("updated_at", time.Now())
	if patch.FullName != nil {
		q = q.Set("full_name", *patch.FullName)
	}
	if patch.Batch != nil {
		q = q.Set("batch", *patch.Batch)
	}
	if patch.DepartmentID != nil {
		q = q.Set("department_id", *patch.DepartmentID)
	}
	if patch.Phone != nil {
		q = q.Set("phone", *patch.Phone)
	}
	if patch.Bio != nil {
		q = q.Set("bio", *patch.Bio)
	}
	if patch.Skills != nil {
		q = q.Set("skills", patch.Skills)
	}
	if patch.ResumeURL != nil {
		q = q.Set("resume_url", *patch.ResumeURL)
	}

	sql, args, err := q.Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build patch profile query: %w", err)
	}

	return r.execOne(ctx, sql, args, id, "patch")
}

// UpdateEmail changes the login email
func (r *ProfileRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	err := r.execOne(ctx, "UPDATE profiles SET email = $1, updated_at = NOW() WHERE id = $2", []interface{}{email, id}, id, "update email")
	if dberrors.IsDuplicateConstraintError(err, "profiles_email_key") {
		return apperrors.ErrEmailAlreadyExists
	}
	return err
}

// UpdatePasswordHash stores a new bcrypt hash
func (r *ProfileRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.execOne(ctx, "UPDATE profiles SET password_hash = $1, updated_at = NOW() WHERE id = $2", []interface{}{hash, id}, id, "update password")
}

// Delete removes the profile; applications, certificates and tokens cascade
func (r *ProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "DELETE FROM profiles WHERE id = $1", []interface{}{id}, id, "delete")
}

func (r *ProfileRepository) execOne(ctx context.Context, sql string, args []interface{}, id uuid.UUID, op string) error {
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "") {
			return err
		}
		if dberrors.IsForeignKeyViolation(err, "profiles_department_id_fkey") {
			return apperrors.ErrDepartmentNotFound
		}
		logger.Error().Err(err).Str("userID", id.String()).Str("op", op).Msg("Error executing profile query")
		return fmt.Errorf("error on profile %s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
