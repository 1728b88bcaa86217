package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

func TestDepartmentLifecycle(t *testing.T) {
	mem := newMemDB()
	stats := &countingStats{}
	svc := NewDepartmentService(memDepartments{mem}, stats)
	ctx := context.Background()

	assert.ErrorIs(t, svc.CreateDepartment(ctx, &models.Department{Name: "   "}), apperrors.ErrValidationFailed)

	dept := &models.Department{Name: " Computer Science "}
	require.NoError(t, svc.CreateDepartment(ctx, dept))
	assert.Equal(t, "Computer Science", dept.Name)
	assert.ErrorIs(t, svc.CreateDepartment(ctx, &models.Department{Name: "Computer Science"}), apperrors.ErrDepartmentExists)

	dept.Name = "Computer Engineering"
	require.NoError(t, svc.UpdateDepartment(ctx, dept))
	got, err := svc.GetDepartmentByID(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Computer Engineering", got.Name)

	mem.addProfile(models.RoleStudent, &dept.ID)
	assert.ErrorIs(t, svc.DeleteDepartment(ctx, dept.ID), apperrors.ErrDepartmentHasMembers)

	empty := &models.Department{Name: "Physics"}
	require.NoError(t, svc.CreateDepartment(ctx, empty))
	require.NoError(t, svc.DeleteDepartment(ctx, empty.ID))

	all, err := svc.GetAllDepartments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 3, stats.invalidated)
}
