package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/internportal/internal/app/models"
	appRepos "github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/config"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/internportal/internal/pkg/auth"
)

// DefaultDepartments are created on first start
var DefaultDepartments = []appModels.Department{
	{Name: "Computer Science"},
	{Name: "Information Technology"},
	{Name: "Electronics and Communication"},
	{Name: "Mechanical Engineering"},
}

// AdminAccount is the bootstrap administrator read from the environment
type AdminAccount struct {
	Email    string
	Password string
	FullName string
}

// AdminFromEnv reads SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD / SEED_ADMIN_NAME.
// ok is false when email or password is missing.
func AdminFromEnv() (AdminAccount, bool) {
	admin := AdminAccount{
		Email:    strings.ToLower(strings.TrimSpace(config.GetEnv("SEED_ADMIN_EMAIL", ""))),
		Password: config.GetEnv("SEED_ADMIN_PASSWORD", ""),
		FullName: config.GetEnv("SEED_ADMIN_NAME", "System Administrator"),
	}
	return admin, admin.Email != "" && admin.Password != ""
}

type departmentCreator interface {
	Create(ctx context.Context, department *appModels.Department) error
}

type profileCreator interface {
	GetByEmail(ctx context.Context, email string) (*appModels.Profile, error)
	Create(ctx context.Context, profile *appModels.Profile) error
}

// CreateDefaultData creates the default departments and, when configured,
// the bootstrap admin. Existing rows are left alone.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	admin, ok := AdminFromEnv()
	if !ok {
		lgr.Info().Msg("SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set, skipping admin creation")
	}
	return run(ctx, appRepos.NewDepartmentRepository(dbPool), appRepos.NewProfileRepository(dbPool), admin, ok, lgr)
}

func run(ctx context.Context, departments departmentCreator, profiles profileCreator, admin AdminAccount, withAdmin bool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	for _, d := range DefaultDepartments {
		dept := d
		err := departments.Create(ctx, &dept)
		switch {
		case err == nil:
			lgr.Info().Str("department", dept.Name).Msg("Default department created")
		case errors.Is(err, apperrors.ErrDepartmentExists):
		default:
			lgr.Error().Err(err).Str("department", dept.Name).Msg("Error creating default department")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if withAdmin {
		finalErr = errors.Join(finalErr, createAdmin(ctx, profiles, admin, lgr))
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func createAdmin(ctx context.Context, profiles profileCreator, admin AdminAccount, lgr zerolog.Logger) error {
	if _, err := profiles.GetByEmail(ctx, admin.Email); err == nil {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}

	hash, err := pkgAuth.HashPassword(admin.Password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	profile := &appModels.Profile{
		ID:             uuid.New(),
		Email:          admin.Email,
		PasswordHash:   hash,
		FullName:       admin.FullName,
		Role:           appModels.RoleAdmin,
		Skills:         []string{},
		EmailConfirmed: true,
	}
	if err := profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Str("adminID", profile.ID.String()).Msg("Default admin user created successfully")
	return nil
}
