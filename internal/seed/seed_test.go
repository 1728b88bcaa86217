package seed

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appModels "github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/internportal/internal/pkg/auth"
)

type fakeDepartments struct {
	existing map[string]bool
	created  []string
}

func (f *fakeDepartments) Create(_ context.Context, d *appModels.Department) error {
	if f.existing[d.Name] {
		return apperrors.ErrDepartmentExists
	}
	f.created = append(f.created, d.Name)
	return nil
}

type fakeProfiles struct {
	byEmail map[string]*appModels.Profile
	lookErr error
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*appModels.Profile, error) {
	if f.lookErr != nil {
		return nil, f.lookErr
	}
	if p, ok := f.byEmail[email]; ok {
		return p, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeProfiles) Create(_ context.Context, p *appModels.Profile) error {
	f.byEmail[p.Email] = p
	return nil
}

func TestRunCreatesMissingDepartmentsAndAdmin(t *testing.T) {
	depts := &fakeDepartments{existing: map[string]bool{"Computer Science": true}}
	profiles := &fakeProfiles{byEmail: map[string]*appModels.Profile{}}
	admin := AdminAccount{Email: "admin@college.edu", Password: "s3cret-pass", FullName: "Admin"}

	err := run(context.Background(), depts, profiles, admin, true, zerolog.New(io.Discard))
	require.NoError(t, err)

	assert.Len(t, depts.created, len(DefaultDepartments)-1)
	assert.NotContains(t, depts.created, "Computer Science")

	created := profiles.byEmail["admin@college.edu"]
	require.NotNil(t, created)
	assert.Equal(t, appModels.RoleAdmin, created.Role)
	assert.True(t, created.EmailConfirmed)
	assert.True(t, pkgAuth.CheckPassword(created.PasswordHash, "s3cret-pass"))
}

func TestRunSkipsExistingAdmin(t *testing.T) {
	existing := &appModels.Profile{Email: "admin@college.edu", PasswordHash: "old"}
	profiles := &fakeProfiles{byEmail: map[string]*appModels.Profile{"admin@college.edu": existing}}

	err := run(context.Background(), &fakeDepartments{}, profiles, AdminAccount{Email: "admin@college.edu", Password: "x"}, true, zerolog.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, "old", profiles.byEmail["admin@college.edu"].PasswordHash)
}

func TestRunReportsLookupFailure(t *testing.T) {
	boom := errors.New("connection reset")
	profiles := &fakeProfiles{lookErr: boom}

	err := run(context.Background(), &fakeDepartments{}, profiles, AdminAccount{Email: "a@b.c", Password: "x"}, true, zerolog.New(io.Discard))
	assert.ErrorIs(t, err, boom)
}

func TestAdminFromEnv(t *testing.T) {
	t.Setenv("SEED_ADMIN_EMAIL", " Admin@College.edu ")
	t.Setenv("SEED_ADMIN_PASSWORD", "pw123456")

	admin, ok := AdminFromEnv()
	assert.True(t, ok)
	assert.Equal(t, "admin@college.edu", admin.Email)
	assert.Equal(t, "System Administrator", admin.FullName)

	t.Setenv("SEED_ADMIN_PASSWORD", "")
	_, ok = AdminFromEnv()
	assert.False(t, ok)
}
