package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/db"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// InternshipService handles internship postings
type InternshipService struct {
	tx           db.Transactor
	internships  repositories.IInternshipRepository
	applications repositories.IApplicationRepository
	departments  repositories.IDepartmentRepository
	authz        *auth.AuthorizationService
	notifier     Notifier
	stats        StatsInvalidator
	logger       zerolog.Logger
}

// NewInternshipService creates a new InternshipService
func NewInternshipService(
	tx db.Transactor,
	internships repositories.IInternshipRepository,
	applications repositories.IApplicationRepository,
	departments repositories.IDepartmentRepository,
	authz *auth.AuthorizationService,
	notifier Notifier,
	stats StatsInvalidator,
	logger zerolog.Logger,
) *InternshipService {
	return &InternshipService{
		tx:           tx,
		internships:  internships,
		applications: applications,
		departments:  departments,
		authz:        authz,
		notifier:     notifier,
		stats:        stats,
		logger:       logger,
	}
}

// CreateInternship posts an internship. Faculty always post to their own
// department; admins must name one. Students of the department are notified.
func (s *InternshipService) CreateInternship(ctx context.Context, caller auth.Caller, req *dto.CreateInternshipRequest) (*models.Internship, error) {
	if err := s.authz.RequireRole(caller, models.RoleFaculty, models.RoleAdmin); err != nil {
		return nil, err
	}

	var departmentID uuid.UUID
	switch {
	case caller.IsFaculty() && caller.DepartmentID != nil:
		departmentID = *caller.DepartmentID
	case strings.TrimSpace(req.DepartmentID) != "":
		id, err := uuid.Parse(req.DepartmentID)
		if err != nil {
			return nil, apperrors.NewValidationError("departmentId", "departmentId must be a valid UUID")
		}
		if err := s.authz.CanAccessDepartment(caller, &id); err != nil {
			return nil, err
		}
		departmentID = id
	default:
		return nil, apperrors.NewValidationError("departmentId", "departmentId is required")
	}

	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	internship := &models.Internship{
		CompanyName:    strings.TrimSpace(req.CompanyName),
		Title:          strings.TrimSpace(req.Title),
		Domain:         strings.TrimSpace(req.Domain),
		Duration:       strings.TrimSpace(req.Duration),
		Location:       req.Location,
		DepartmentID:   departmentID,
		FacultyID:      caller.ID,
		InternshipLink: strings.TrimSpace(req.InternshipLink),
		Description:    req.Description,
		Stipend:        req.Stipend,
		IsActive:       true,
	}
	if req.IsActive != nil {
		internship.IsActive = *req.IsActive
	}

	if err := s.internships.Create(ctx, internship); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)

	if internship.IsActive {
		s.notifier.InternshipPosted(ctx, internship)
	}
	return internship, nil
}

// GetInternship retrieves one internship
func (s *InternshipService) GetInternship(ctx context.Context, id uuid.UUID) (*models.Internship, error) {
	return s.internships.GetByID(ctx, id)
}

// ListInternships lists internships visible to the caller. Students and
// faculty with a department only see their own department.
func (s *InternshipService) ListInternships(ctx context.Context, caller auth.Caller, filter repositories.InternshipFilter) ([]*models.Internship, int64, error) {
	if !caller.IsAdmin() {
		scope, err := s.authz.ScopeDepartment(caller, filter.DepartmentID)
		if err != nil {
			return nil, 0, err
		}
		filter.DepartmentID = scope
	}
	if caller.IsStudent() {
		filter.ActiveOnly = true
	}
	return s.internships.List(ctx, filter)
}

// UpdateInternship patches an internship owned by the caller
func (s *InternshipService) UpdateInternship(ctx context.Context, caller auth.Caller, id uuid.UUID, req *dto.UpdateInternshipRequest) (*models.Internship, error) {
	internship, err := s.internships.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManageInternship(caller, internship); err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		internship.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Title != nil {
		internship.Title = strings.TrimSpace(*req.Title)
	}
	if req.Domain != nil {
		internship.Domain = strings.TrimSpace(*req.Domain)
	}
	if req.Duration != nil {
		internship.Duration = strings.TrimSpace(*req.Duration)
	}
	if req.Location != nil {
		internship.Location = req.Location
	}
	if req.InternshipLink != nil {
		internship.InternshipLink = strings.TrimSpace(*req.InternshipLink)
	}
	if req.Description != nil {
		internship.Description = req.Description
	}
	if req.Stipend != nil {
		internship.Stipend = req.Stipend
	}
	if req.IsActive != nil {
		internship.IsActive = *req.IsActive
	}

	if err := s.internships.Update(ctx, internship); err != nil {
		return nil, err
	}
	return internship, nil
}

// DeleteInternship removes an internship and its applications in one transaction
func (s *InternshipService) DeleteInternship(ctx context.Context, caller auth.Caller, id uuid.UUID) error {
	internship, err := s.internships.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.CanManageInternship(caller, internship); err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		removed, err := s.applications.WithTx(tx).DeleteByInternship(ctx, id)
		if err != nil {
			return err
		}
		if err := s.internships.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		s.logger.Info().
			Str("internshipID", id.String()).
			Int64("applicationsRemoved", removed).
			Msg("Internship deleted")
		return nil
	})
	if err != nil {
		return err
	}

	s.stats.Invalidate(ctx)
	return nil
}
