package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/db"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/dberrors"
	"github.com/yigit/internportal/internal/pkg/logger"
)

var internshipColumns = []string{
	"id", "company_name", "title", "domain", "duration", "location", "department_id",
	"faculty_id", "internship_link", "description", "stipend", "is_active", "created_at",
}

// InternshipRepository handles database operations for internships
type InternshipRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewInternshipRepository creates a new InternshipRepository
func NewInternshipRepository(conn db.DBTX) *InternshipRepository {
	return &InternshipRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy bound to tx
func (r *InternshipRepository) WithTx(tx pgx.Tx) IInternshipRepository {
	return &InternshipRepository{db: tx, sb: r.sb}
}

func scanInternship(row pgx.Row) (*models.Internship, error) {
	var i models.Internship
	err := row.Scan(
		&i.ID, &i.CompanyName, &i.Title, &i.Domain, &i.Duration, &i.Location, &i.DepartmentID,
		&i.FacultyID, &i.InternshipLink, &i.Description, &i.Stipend, &i.IsActive, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts an internship
func (r *InternshipRepository) Create(ctx context.Context, internship *models.Internship) error {
	if internship.ID == uuid.Nil {
		internship.ID = uuid.New()
	}

	sql, args, err := r.sb.Insert("internships").
		Columns("id", "company_name", "title", "domain", "duration", "location", "department_id",
			"faculty_id", "internship_link", "description", "stipend", "is_active").
		Values(internship.ID, internship.CompanyName, internship.Title, internship.Domain, internship.Duration,
			internship.Location, internship.DepartmentID, internship.FacultyID, internship.InternshipLink,
			internship.Description, internship.Stipend, internship.IsActive).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create internship query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&internship.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err, "internships_department_id_fkey") {
			return apperrors.ErrDepartmentNotFound
		}
		if dberrors.IsForeignKeyViolation(err, "internships_faculty_id_fkey") {
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("title", internship.Title).Msg("Error creating internship")
		return fmt.Errorf("error creating internship: %w", err)
	}
	return nil
}

// GetByID retrieves one internship
func (r *InternshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Internship, error) {
	sql, args, err := r.sb.Select(internshipColumns...).
		From("internships").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get internship query: %w", err)
	}

	internship, err := scanInternship(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrInternshipNotFound
		}
		logger.Error().Err(err).Str("internshipID", id.String()).Msg("Error retrieving internship")
		return nil, fmt.Errorf("error retrieving internship: %w", err)
	}
	return internship, nil
}

// List returns one page of internships, newest first, plus the total match count
func (r *InternshipRepository) List(ctx context.Context, filter InternshipFilter) ([]*models.Internship, int64, error) {
	where := squirrel.And{}
	if filter.DepartmentID != nil {
		where = append(where, squirrel.Eq{"department_id": *filter.DepartmentID})
	}
	if filter.FacultyID != nil {
		where = append(where, squirrel.Eq{"faculty_id": *filter.FacultyID})
	}
	if filter.ActiveOnly {
		where = append(where, squirrel.Eq{"is_active": true})
	}

	countQuery := r.sb.Select("COUNT(*)").From("internships")
	listQuery := r.sb.Select(internshipColumns...).From("internships").OrderBy("created_at DESC", "id DESC")
	if len(where) > 0 {
		countQuery = countQuery.Where(where)
		listQuery = listQuery.Where(where)
	}
	if filter.Limit > 0 {
		listQuery = listQuery.Limit(uint64(filter.Limit)).Offset(filter.Offset)
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count internships query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting internships")
		return nil, 0, fmt.Errorf("error counting internships: %w", err)
	}

	sql, args, err := listQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list internships query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing internships")
		return nil, 0, fmt.Errorf("error listing internships: %w", err)
	}
	defer rows.Close()

	internships := make([]*models.Internship, 0)
	for rows.Next() {
		i, err := scanInternship(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning internship: %w", err)
		}
		internships = append(internships, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return internships, total, nil
}

// Update overwrites the mutable columns of an internship
func (r *InternshipRepository) Update(ctx context.Context, internship *models.Internship) error {
	sql, args, err := r.sb.Update("internships").
		Set("company_name", internship.CompanyName).
		Set("title", internship.Title).
		Set("domain", internship.Domain).
		Set("duration", internship.Duration).
		Set("location", internship.Location).
		Set("internship_link", internship.InternshipLink).
		Set("description", internship.Description).
		Set("stipend", internship.Stipend).
		Set("is_active", internship.IsActive).
		Where(squirrel.Eq{"id": internship.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update internship query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("internshipID", internship.ID.String()).Msg("Error updating internship")
		return fmt.Errorf("error updating internship: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInternshipNotFound
	}
	return nil
}

// Delete removes an internship row
func (r *InternshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, "DELETE FROM internships WHERE id = $1", id)
	if err != nil {
		logger.Error().Err(err).Str("internshipID", id.String()).Msg("Error deleting internship")
		return fmt.Errorf("error deleting internship: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInternshipNotFound
	}
	return nil
}
