package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
)

// ProfileService serves profile reads with contact details filtered by viewer
type ProfileService struct {
	profiles     repositories.IProfileRepository
	applications repositories.IApplicationRepository
	authz        *auth.AuthorizationService
}

// NewProfileService creates a new ProfileService
func NewProfileService(profiles repositories.IProfileRepository, applications repositories.IApplicationRepository, authz *auth.AuthorizationService) *ProfileService {
	return &ProfileService{
		profiles:     profiles,
		applications: applications,
		authz:        authz,
	}
}

// GetProfile returns a profile as the caller may see it. The owner and
// admins see everything; a faculty member looking at a student who applied
// to one of their internships loses phone and email; anyone else also
// loses the resume link.
func (s *ProfileService) GetProfile(ctx context.Context, caller auth.Caller, id uuid.UUID) (*dto.ProfileResponse, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.NewProfileResponse(profile)
	if caller.ID == profile.ID || caller.IsAdmin() {
		return &resp, nil
	}

	applicant := false
	if caller.IsFaculty() && profile.Role == models.RoleStudent {
		apps, err := s.applications.List(ctx, repositories.ApplicationFilter{
			StudentID:           &profile.ID,
			InternshipFacultyID: &caller.ID,
		})
		if err != nil {
			return nil, err
		}
		applicant = len(apps) > 0
	}

	resp.Email = nil
	resp.Phone = nil
	if !applicant {
		resp.ResumeURL = nil
	}
	return &resp, nil
}

// UpdateMyProfile patches the caller's own self-service fields
func (s *ProfileService) UpdateMyProfile(ctx context.Context, caller auth.Caller, req *dto.UpdateMyProfileRequest) (*dto.ProfileResponse, error) {
	patch := repositories.ProfilePatch{
		Phone:     req.Phone,
		Bio:       req.Bio,
		Skills:    req.Skills,
		ResumeURL: req.ResumeURL,
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		patch.FullName = &name
	}

	if err := s.profiles.Patch(ctx, caller.ID, patch); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProfileResponse(profile)
	return &resp, nil
}

// ListDepartmentStudents lists the students of a department for its faculty and admins
func (s *ProfileService) ListDepartmentStudents(ctx context.Context, caller auth.Caller, departmentID uuid.UUID) ([]dto.ProfileResponse, error) {
	if err := s.authz.CanAccessDepartment(caller, &departmentID); err != nil {
		return nil, err
	}

	students, err := s.profiles.ListByDepartmentAndRole(ctx, departmentID, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ProfileResponse, 0, len(students))
	for _, p := range students {
		result = append(result, dto.NewProfileResponse(p))
	}
	return result, nil
}
