package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/logger"
)

// Authorization failures shared by the services
var (
	ErrNotOwner             = apperrors.NewForbiddenError("only the owning student can change this application")
	ErrOutsideDepartment    = apperrors.NewForbiddenError("the record belongs to another department")
	ErrNoDepartment         = apperrors.NewForbiddenError("faculty account has no department")
	ErrNotInternshipManager = apperrors.NewForbiddenError("only the posting faculty or an admin can change this internship")
	ErrRoleNotAllowed       = apperrors.NewForbiddenError("role not allowed for this action")
)

// Caller is the identity behind a request with its stored role and department
type Caller struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Role         models.RoleType
	DepartmentID *uuid.UUID
}

// CallerFromProfile builds a Caller from a stored profile
func CallerFromProfile(p *models.Profile) Caller {
	return Caller{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         p.Role,
		DepartmentID: p.DepartmentID,
	}
}

func (c Caller) IsAdmin() bool   { return c.Role == models.RoleAdmin }
func (c Caller) IsFaculty() bool { return c.Role == models.RoleFaculty }
func (c Caller) IsStudent() bool { return c.Role == models.RoleStudent }

// AuthorizationService answers ownership and department scoping questions.
// Every service write path calls it before touching the record store.
type AuthorizationService struct {
	profiles               repositories.IProfileRepository
	allowUnassignedFaculty bool
}

// NewAuthorizationService creates a new AuthorizationService. When
// allowUnassignedFaculty is set, faculty without a department are not
// restricted to one.
func NewAuthorizationService(profiles repositories.IProfileRepository, allowUnassignedFaculty bool) *AuthorizationService {
	return &AuthorizationService{
		profiles:               profiles,
		allowUnassignedFaculty: allowUnassignedFaculty,
	}
}

// ResolveCaller loads the stored profile of the authenticated user. The role
// in the token is not trusted for authorization decisions.
func (s *AuthorizationService) ResolveCaller(ctx context.Context, userID uuid.UUID) (Caller, error) {
	if userID == uuid.Nil {
		return Caller{}, apperrors.ErrUnauthenticated
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return Caller{}, fmt.Errorf("%w: caller profile not found", apperrors.ErrUnauthenticated)
		}
		logger.Error().Err(err).Str("userID", userID.String()).Msg("Error resolving caller")
		return Caller{}, err
	}
	return CallerFromProfile(profile), nil
}

// RequireRole fails unless the caller holds one of roles
func (s *AuthorizationService) RequireRole(caller Caller, roles ...models.RoleType) error {
	for _, r := range roles {
		if caller.Role == r {
			return nil
		}
	}
	return ErrRoleNotAllowed
}

// RequireOwner fails unless the caller is the student owning the application
func (s *AuthorizationService) RequireOwner(caller Caller, app *models.Application) error {
	if !caller.IsStudent() || app.StudentID != caller.ID {
		return ErrNotOwner
	}
	return nil
}

// CanAccessDepartment reports whether a faculty or admin caller may act on
// records of departmentID.
func (s *AuthorizationService) CanAccessDepartment(caller Caller, departmentID *uuid.UUID) error {
	switch caller.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleFaculty:
		if caller.DepartmentID == nil {
			if s.allowUnassignedFaculty {
				return nil
			}
			return ErrNoDepartment
		}
		if departmentID == nil || *departmentID != *caller.DepartmentID {
			return ErrOutsideDepartment
		}
		return nil
	default:
		return ErrRoleNotAllowed
	}
}

// CanReviewCertificate checks a verify or reject attempt against the
// department of the student owning the certificate.
func (s *AuthorizationService) CanReviewCertificate(caller Caller, student *models.Profile) error {
	var departmentID *uuid.UUID
	if student != nil {
		departmentID = student.DepartmentID
	}
	return s.CanAccessDepartment(caller, departmentID)
}

// CanViewApplication allows the owner, faculty of the student's department and admins
func (s *AuthorizationService) CanViewApplication(caller Caller, app *models.Application) error {
	if caller.IsStudent() {
		return s.RequireOwner(caller, app)
	}
	var departmentID *uuid.UUID
	if app.Student != nil {
		departmentID = app.Student.DepartmentID
	}
	if err := s.CanAccessDepartment(caller, departmentID); err != nil {
		// the faculty who posted the internship may still follow it
		if caller.IsFaculty() && app.Internship != nil && app.Internship.FacultyID == caller.ID {
			return nil
		}
		return err
	}
	return nil
}

// CanManageInternship allows the posting faculty and admins
func (s *AuthorizationService) CanManageInternship(caller Caller, internship *models.Internship) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.IsFaculty() && internship.FacultyID == caller.ID {
		return nil
	}
	return ErrNotInternshipManager
}

// CanManageStudent allows admins on any student and faculty on students of their own department
func (s *AuthorizationService) CanManageStudent(caller Caller, target *models.Profile) error {
	if caller.IsAdmin() {
		return nil
	}
	if !caller.IsFaculty() {
		return ErrRoleNotAllowed
	}
	if target.Role != models.RoleStudent {
		return apperrors.NewForbiddenError("faculty can only manage student accounts")
	}
	return s.CanAccessDepartment(caller, target.DepartmentID)
}

// ScopeDepartment resolves the department a listing is limited to. Faculty
// with a department are pinned to it; admins get what they asked for (nil
// meaning every department).
func (s *AuthorizationService) ScopeDepartment(caller Caller, requested *uuid.UUID) (*uuid.UUID, error) {
	switch caller.Role {
	case models.RoleAdmin:
		return requested, nil
	case models.RoleFaculty:
		if caller.DepartmentID != nil {
			return caller.DepartmentID, nil
		}
		if s.allowUnassignedFaculty {
			return requested, nil
		}
		return nil, ErrNoDepartment
	default:
		if caller.DepartmentID == nil {
			return nil, ErrNoDepartment
		}
		return caller.DepartmentID, nil
	}
}
