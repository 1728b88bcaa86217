package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// DepartmentService handles department-related operations
type DepartmentService struct {
	departmentRepo repositories.IDepartmentRepository
	stats          StatsInvalidator
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(departmentRepo repositories.IDepartmentRepository, stats StatsInvalidator) *DepartmentService {
	return &DepartmentService{
		departmentRepo: departmentRepo,
		stats:          stats,
	}
}

// validateDepartment validates department data before database operations
func (s *DepartmentService) validateDepartment(department *models.Department) error {
	if department == nil {
		return fmt.Errorf("%w: department is nil", apperrors.ErrValidationFailed)
	}

	department.Name = strings.TrimSpace(department.Name)
	if department.Name == "" {
		return apperrors.NewValidationError("name", "name cannot be empty")
	}

	return nil
}

// CreateDepartment creates a new department
func (s *DepartmentService) CreateDepartment(ctx context.Context, department *models.Department) error {
	if err := s.validateDepartment(department); err != nil {
		return err
	}

	if err := s.departmentRepo.Create(ctx, department); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// GetDepartmentByID retrieves a department by ID
func (s *DepartmentService) GetDepartmentByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	return s.departmentRepo.GetByID(ctx, id)
}

// GetAllDepartments retrieves all departments
func (s *DepartmentService) GetAllDepartments(ctx context.Context) ([]*models.Department, error) {
	departments, err := s.departmentRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving departments: %w", err)
	}
	return departments, nil
}

// UpdateDepartment updates an existing department
func (s *DepartmentService) UpdateDepartment(ctx context.Context, department *models.Department) error {
	if err := s.validateDepartment(department); err != nil {
		return err
	}
	return s.departmentRepo.Update(ctx, department)
}

// DeleteDepartment deletes a department that no profile or internship references
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	if err := s.departmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}
