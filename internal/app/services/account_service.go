package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// Account actions of the privileged functions
const (
	ActionCreateOne     = "create_one"
	ActionBulkCreate    = "bulk_create"
	ActionCreateFaculty = "create_faculty"
	ActionUpdateProfile = "update_profile"
	ActionResetPassword = "reset_password"
	ActionDeleteUser    = "delete_user"
)

// AccountService provisions faculty and student accounts on behalf of
// admins and faculty.
type AccountService struct {
	identity IdentityProvider
	profiles repositories.IProfileRepository
	authz    *auth.AuthorizationService
	stats    StatsInvalidator
	logger   zerolog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(identity IdentityProvider, profiles repositories.IProfileRepository, authz *auth.AuthorizationService, stats StatsInvalidator, logger zerolog.Logger) *AccountService {
	return &AccountService{
		identity: identity,
		profiles: profiles,
		authz:    authz,
		stats:    stats,
		logger:   logger,
	}
}

// ManageFaculty runs one manage-faculty action. Admins only.
func (s *AccountService) ManageFaculty(ctx context.Context, caller auth.Caller, req *dto.ManageAccountRequest) (interface{}, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("Only admins can manage faculty")
	}

	switch req.Action {
	case ActionResetPassword:
		userID, err := requireUserID(req.UserID, req.NewPassword == "", "user_id and new_password are required")
		if err != nil {
			return nil, err
		}
		if err := s.identity.ResetPassword(ctx, userID, req.NewPassword); err != nil {
			return nil, err
		}
		return dto.FunctionResult{Success: true, Message: "Password reset successfully"}, nil

	case ActionDeleteUser:
		userID, err := requireUserID(req.UserID, false, "user_id is required")
		if err != nil {
			return nil, err
		}
		if err := s.identity.DeleteUser(ctx, userID); err != nil {
			return nil, err
		}
		s.stats.Invalidate(ctx)
		return dto.FunctionResult{Success: true, Message: "User deleted successfully"}, nil

	case ActionCreateFaculty:
		if blank(req.Name) || blank(req.Email) || req.Password == "" {
			return nil, apperrors.NewValidationError("name", "name, email, and password are required")
		}
		departmentID, err := optionalUUID("department_id", req.DepartmentID)
		if err != nil {
			return nil, err
		}
		id, err := s.createAccount(ctx, accountRow{Name: req.Name, Email: req.Email, Password: req.Password}, models.RoleFaculty, departmentID)
		if err != nil {
			return nil, err
		}
		return dto.FunctionResult{Success: true, ID: &id, Message: "Faculty created successfully"}, nil

	case ActionUpdateProfile:
		userID, err := requireUserID(req.UserID, false, "user_id is required")
		if err != nil {
			return nil, err
		}
		departmentID, err := optionalUUID("department_id", req.DepartmentID)
		if err != nil {
			return nil, err
		}
		if err := s.updateAccount(ctx, userID, req, departmentID); err != nil {
			return nil, err
		}
		return dto.FunctionResult{Success: true, Message: "Profile updated successfully"}, nil

	default:
		return nil, apperrors.NewValidationError("action", "Unknown action: "+req.Action)
	}
}

// ManageStudents runs one manage-students action. Admins act on any
// department; faculty only on students of their own.
func (s *AccountService) ManageStudents(ctx context.Context, caller auth.Caller, req *dto.ManageAccountRequest) (interface{}, error) {
	if !caller.IsAdmin() && !caller.IsFaculty() {
		return nil, apperrors.NewForbiddenError("Only admin or faculty can manage students")
	}

	switch req.Action {
	case ActionCreateOne:
		row := accountRow{Name: req.Name, Email: req.Email, Password: req.Password, Batch: req.Batch}
		if err := row.validateStudent(); err != nil {
			return nil, err
		}
		departmentID, err := s.targetDepartment(caller, req.DepartmentID)
		if err != nil {
			return nil, err
		}
		id, err := s.createAccount(ctx, row, models.RoleStudent, departmentID)
		if err != nil {
			return nil, err
		}
		return dto.FunctionResult{Success: true, ID: &id}, nil

	case ActionBulkCreate:
		if len(req.Students) == 0 {
			return nil, apperrors.NewValidationError("students", "students array is required")
		}
		departmentID, err := s.targetDepartment(caller, req.DepartmentID)
		if err != nil {
			return nil, err
		}
		return s.bulkCreate(ctx, req.Students, departmentID), nil

	case ActionUpdateProfile:
		userID, err := requireUserID(req.UserID, false, "user_id is required")
		if err != nil {
			return nil, err
		}
		if err := s.requireManageableStudent(ctx, caller, userID); err != nil {
			return nil, err
		}
		var departmentID *uuid.UUID
		if caller.IsAdmin() {
			if departmentID, err = optionalUUID("department_id", req.DepartmentID); err != nil {
				return nil, err
			}
		}
		if err := s.updateAccount(ctx, userID, req, departmentID); err != nil {
			return nil, err
		}
		return dto.FunctionResult{Success: true}, nil

	case ActionResetPassword:
		userID, err := requireUserID(req.UserID, req.NewPassword == "", "user_id and new_password are required")
		if err != nil {
			return nil, err
		}
		if err := s.requireManageableStudent(ctx, caller, userID); err != nil {
			return nil, err
		}
		if err := s.identity.ResetPassword(ctx, userID, req.NewPassword); err != nil {
			return nil, err
		}
		return dto.FunctionResult{Success: true}, nil

	case ActionDeleteUser:
		userID, err := requireUserID(req.UserID, false, "user_id is required")
		if err != nil {
			return nil, err
		}
		if err := s.requireManageableStudent(ctx, caller, userID); err != nil {
			return nil, err
		}
		if err := s.identity.DeleteUser(ctx, userID); err != nil {
			return nil, err
		}
		s.stats.Invalidate(ctx)
		return dto.FunctionResult{Success: true}, nil

	default:
		return nil, apperrors.NewValidationError("action", "Unknown action: "+req.Action)
	}
}

// bulkCreate creates each row independently; a failed row never stops the batch
func (s *AccountService) bulkCreate(ctx context.Context, rows []dto.StudentRow, departmentID *uuid.UUID) dto.BulkCreateResponse {
	resp := dto.BulkCreateResponse{Results: make([]dto.BulkRowResult, 0, len(rows))}

	for _, r := range rows {
		row := accountRow{Name: r.Name, Email: r.Email, Password: r.Password, Batch: r.Batch}
		id, err := func() (uuid.UUID, error) {
			if err := row.validateStudent(); err != nil {
				return uuid.Nil, err
			}
			return s.createAccount(ctx, row, models.RoleStudent, departmentID)
		}()
		if err != nil {
			resp.Results = append(resp.Results, dto.BulkRowResult{Email: r.Email, Error: err.Error()})
			resp.Failed++
			continue
		}
		resp.Results = append(resp.Results, dto.BulkRowResult{Email: r.Email, ID: &id, Success: true})
		resp.Succeeded++
	}

	if resp.Failed > 0 {
		partial := &apperrors.PartialBatchError{Total: len(rows), Failed: resp.Failed}
		s.logger.Warn().Err(partial).Int("succeeded", partial.Succeeded()).Msg("Bulk student import finished with failures")
	} else {
		s.logger.Info().Int("succeeded", resp.Succeeded).Msg("Bulk student import finished")
	}
	return resp
}

type accountRow struct {
	Name     string
	Email    string
	Password string
	Batch    string
}

func (r accountRow) validateStudent() error {
	if blank(r.Name) || blank(r.Email) || r.Password == "" || blank(r.Batch) {
		return apperrors.NewValidationError("name", "name, email, password, and batch are required")
	}
	return nil
}

// createAccount creates the identity with a confirmed email, then assigns
// department and batch. The identity is removed again if that fails.
func (s *AccountService) createAccount(ctx context.Context, row accountRow, role models.RoleType, departmentID *uuid.UUID) (uuid.UUID, error) {
	profile, err := s.identity.CreateUser(ctx, NewIdentity{
		Email:          row.Email,
		Password:       row.Password,
		FullName:       strings.TrimSpace(row.Name),
		Role:           role,
		EmailConfirmed: true,
	})
	if err != nil {
		return uuid.Nil, err
	}

	patch := repositories.ProfilePatch{DepartmentID: departmentID}
	if batch := strings.TrimSpace(row.Batch); batch != "" {
		patch.Batch = &batch
	}
	if err := s.profiles.Patch(ctx, profile.ID, patch); err != nil {
		if delErr := s.identity.DeleteUser(ctx, profile.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("userID", profile.ID.String()).Msg("Failed to remove half-created account")
		}
		if errors.Is(err, apperrors.ErrDepartmentNotFound) {
			return uuid.Nil, apperrors.NewProviderError(err, "Department not found")
		}
		return uuid.Nil, err
	}

	s.stats.Invalidate(ctx)
	return profile.ID, nil
}

func (s *AccountService) updateAccount(ctx context.Context, userID uuid.UUID, req *dto.ManageAccountRequest, departmentID *uuid.UUID) error {
	patch := repositories.ProfilePatch{DepartmentID: departmentID}
	if name := strings.TrimSpace(req.Name); name != "" {
		patch.FullName = &name
	}
	if batch := strings.TrimSpace(req.Batch); batch != "" {
		patch.Batch = &batch
	}

	if err := s.profiles.Patch(ctx, userID, patch); err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound, apperrors.ErrDepartmentNotFound) {
			return apperrors.NewProviderError(err, err.Error())
		}
		return err
	}
	if !blank(req.Email) {
		if err := s.identity.UpdateEmail(ctx, userID, req.Email); err != nil {
			return err
		}
	}
	return nil
}

// targetDepartment is the department new students are created in
func (s *AccountService) targetDepartment(caller auth.Caller, requested string) (*uuid.UUID, error) {
	if caller.IsAdmin() {
		return optionalUUID("department_id", requested)
	}
	id, err := optionalUUID("department_id", requested)
	if err != nil {
		return nil, err
	}
	return s.authz.ScopeDepartment(caller, id)
}

func (s *AccountService) requireManageableStudent(ctx context.Context, caller auth.Caller, userID uuid.UUID) error {
	if caller.IsAdmin() {
		return nil
	}
	target, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewProviderError(err, "User not found")
		}
		return err
	}
	return s.authz.CanManageStudent(caller, target)
}

func requireUserID(raw string, missingOther bool, message string) (uuid.UUID, error) {
	if blank(raw) || missingOther {
		return uuid.Nil, apperrors.NewValidationError("user_id", message)
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("user_id", "user_id must be a valid UUID")
	}
	return id, nil
}

func optionalUUID(field, raw string) (*uuid.UUID, error) {
	if blank(raw) {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperrors.NewValidationError(field, field+" must be a valid UUID")
	}
	return &id, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
