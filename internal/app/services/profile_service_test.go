package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func TestGetProfileFiltersContactDetails(t *testing.T) {
	mem := newMemDB()
	profiles := memProfiles{mem}
	svc := NewProfileService(profiles, memApplications{mem}, auth.NewAuthorizationService(profiles, false))
	ctx := context.Background()

	dept := mem.addDepartment("Computer Science")
	student := mem.addProfile(models.RoleStudent, &dept)
	student.Phone = strPtr("+90 555 000 0000")
	student.ResumeURL = strPtr("https://cdn.example.com/resume.pdf")

	poster := mem.addProfile(models.RoleFaculty, &dept)
	mem.addApplication(student.ID, mem.addInternship(dept, poster.ID).ID, models.ApplicationPending)
	stranger := mem.addProfile(models.RoleFaculty, &dept)
	classmate := mem.addProfile(models.RoleStudent, &dept)
	admin := mem.addProfile(models.RoleAdmin, nil)

	tests := []struct {
		name       string
		viewer     *models.Profile
		wantEmail  bool
		wantPhone  bool
		wantResume bool
	}{
		{"owner", student, true, true, true},
		{"admin", admin, true, true, true},
		{"posting faculty", poster, false, false, true},
		{"other faculty", stranger, false, false, false},
		{"another student", classmate, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetProfile(ctx, callerOf(tt.viewer), student.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, resp.Email != nil)
			assert.Equal(t, tt.wantPhone, resp.Phone != nil)
			assert.Equal(t, tt.wantResume, resp.ResumeURL != nil)
			assert.Equal(t, student.FullName, resp.FullName)
		})
	}
}

func TestUpdateMyProfileTrimsName(t *testing.T) {
	mem := newMemDB()
	profiles := memProfiles{mem}
	svc := NewProfileService(profiles, memApplications{mem}, auth.NewAuthorizationService(profiles, false))
	me := mem.addProfile(models.RoleStudent, nil)

	resp, err := svc.UpdateMyProfile(context.Background(), callerOf(me), &dto.UpdateMyProfileRequest{
		FullName: strPtr("  Ada Lovelace "),
		Skills:   []string{"go", "sql"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", resp.FullName)
	assert.Equal(t, []string{"go", "sql"}, resp.Skills)
}

func TestListDepartmentStudentsScopesFaculty(t *testing.T) {
	mem := newMemDB()
	profiles := memProfiles{mem}
	svc := NewProfileService(profiles, memApplications{mem}, auth.NewAuthorizationService(profiles, false))
	ctx := context.Background()

	cs := mem.addDepartment("Computer Science")
	ee := mem.addDepartment("Electrical")
	mem.addProfile(models.RoleStudent, &cs)
	mem.addProfile(models.RoleStudent, &cs)
	mem.addProfile(models.RoleStudent, &ee)
	faculty := mem.addProfile(models.RoleFaculty, &cs)

	students, err := svc.ListDepartmentStudents(ctx, callerOf(faculty), cs)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	_, err = svc.ListDepartmentStudents(ctx, callerOf(faculty), ee)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
