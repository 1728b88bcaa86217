package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/lifecycle"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/app/status"
	"github.com/yigit/internportal/internal/pkg/cache"
)

const statsKeyPrefix = "stats:"

// DefaultStatsTTL is how long a dashboard stays cached
const DefaultStatsTTL = 60 * time.Second

// StatsInvalidator drops cached dashboards after a write
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// StatsService computes dashboard aggregates. Every active/completed count
// goes through status.Partition.
type StatsService struct {
	departments  repositories.IDepartmentRepository
	profiles     repositories.IProfileRepository
	internships  repositories.IInternshipRepository
	applications repositories.IApplicationRepository
	certificates repositories.ICertificateRepository
	authz        *auth.AuthorizationService
	cache        cache.Cache
	ttl          time.Duration
	logger       zerolog.Logger
}

// NewStatsService creates a new StatsService. A nil cache disables caching.
func NewStatsService(
	departments repositories.IDepartmentRepository,
	profiles repositories.IProfileRepository,
	internships repositories.IInternshipRepository,
	applications repositories.IApplicationRepository,
	certificates repositories.ICertificateRepository,
	authz *auth.AuthorizationService,
	c cache.Cache,
	ttl time.Duration,
	logger zerolog.Logger,
) *StatsService {
	if c == nil {
		c = cache.NoopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsService{
		departments:  departments,
		profiles:     profiles,
		internships:  internships,
		applications: applications,
		certificates: certificates,
		authz:        authz,
		cache:        c,
		ttl:          ttl,
		logger:       logger,
	}
}

// Invalidate drops every cached dashboard
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, statsKeyPrefix); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate dashboard cache")
	}
}

// cached loads key from the cache or computes and stores it
func cached[T any](ctx context.Context, s *StatsService, key string, compute func() (*T, error)) (*T, error) {
	var hit T
	err := s.cache.GetJSON(ctx, key, &hit)
	if err == nil {
		return &hit, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dashboard cache read failed")
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dashboard cache write failed")
	}
	return value, nil
}

// StudentDashboard counts the caller's own applications
func (s *StatsService) StudentDashboard(ctx context.Context, caller auth.Caller) (*dto.StudentDashboard, error) {
	if err := s.authz.RequireRole(caller, models.RoleStudent); err != nil {
		return nil, err
	}
	return cached(ctx, s, statsKeyPrefix+"student:"+caller.ID.String(), func() (*dto.StudentDashboard, error) {
		apps, err := s.applications.List(ctx, repositories.ApplicationFilter{
			StudentID: &caller.ID,
			Statuses:  models.ActiveApplicationStatuses,
		})
		if err != nil {
			return nil, err
		}
		counts := status.Partition(apps)
		return &dto.StudentDashboard{
			ActiveInternships:    counts.Active,
			CompletedInternships: counts.Completed,
			TotalApplications:    counts.Total,
			PendingCertificates:  countPendingVerification(apps),
		}, nil
	})
}

// FacultyDashboard aggregates the caller's department. The department-wide
// application count is reconciled with the count over the caller's own
// internships, keeping the larger of the two.
func (s *StatsService) FacultyDashboard(ctx context.Context, caller auth.Caller) (*dto.FacultyDashboard, error) {
	if err := s.authz.RequireRole(caller, models.RoleFaculty); err != nil {
		return nil, err
	}
	return cached(ctx, s, statsKeyPrefix+"faculty:"+caller.ID.String(), func() (*dto.FacultyDashboard, error) {
		_, mine, err := s.internships.List(ctx, repositories.InternshipFilter{FacultyID: &caller.ID, Limit: 1})
		if err != nil {
			return nil, err
		}
		ownApps, err := s.applications.List(ctx, repositories.ApplicationFilter{InternshipFacultyID: &caller.ID})
		if err != nil {
			return nil, err
		}

		board := &dto.FacultyDashboard{MyInternships: int(mine)}
		apps := ownApps
		if caller.DepartmentID != nil {
			_, deptInternships, err := s.internships.List(ctx, repositories.InternshipFilter{DepartmentID: caller.DepartmentID, Limit: 1})
			if err != nil {
				return nil, err
			}
			students, err := s.profiles.CountByRole(ctx, models.RoleStudent, caller.DepartmentID)
			if err != nil {
				return nil, err
			}
			deptApps, err := s.applications.List(ctx, repositories.ApplicationFilter{StudentDepartmentID: caller.DepartmentID})
			if err != nil {
				return nil, err
			}
			board.DepartmentInternships = int(deptInternships)
			board.DepartmentStudents = students
			if len(deptApps) >= len(ownApps) {
				apps = deptApps
			}
		}

		counts := status.Partition(apps)
		board.TotalApplications = counts.Total
		board.ActiveApplications = counts.Active
		board.CompletedApplications = counts.Completed
		board.PendingVerifications = countPendingVerification(apps)
		return board, nil
	})
}

// AdminDashboard aggregates the whole portal
func (s *StatsService) AdminDashboard(ctx context.Context, caller auth.Caller) (*dto.AdminDashboard, error) {
	if err := s.authz.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.adminDashboard(ctx)
}

func (s *StatsService) adminDashboard(ctx context.Context) (*dto.AdminDashboard, error) {
	return cached(ctx, s, statsKeyPrefix+"admin", func() (*dto.AdminDashboard, error) {
		students, err := s.profiles.CountByRole(ctx, models.RoleStudent, nil)
		if err != nil {
			return nil, err
		}
		faculty, err := s.profiles.CountByRole(ctx, models.RoleFaculty, nil)
		if err != nil {
			return nil, err
		}
		_, internships, err := s.internships.List(ctx, repositories.InternshipFilter{Limit: 1})
		if err != nil {
			return nil, err
		}
		departments, err := s.departments.Count(ctx)
		if err != nil {
			return nil, err
		}
		verified, err := s.certificates.CountVerified(ctx)
		if err != nil {
			return nil, err
		}
		apps, err := s.applications.List(ctx, repositories.ApplicationFilter{})
		if err != nil {
			return nil, err
		}
		counts := status.Partition(apps)

		return &dto.AdminDashboard{
			Students:              students,
			Faculty:               faculty,
			Internships:           int(internships),
			Departments:           departments,
			VerifiedCertificates:  verified,
			ActiveApplications:    counts.Active,
			CompletedApplications: counts.Completed,
		}, nil
	})
}

// Warm precomputes the admin dashboard
func (s *StatsService) Warm(ctx context.Context) error {
	s.Invalidate(ctx)
	_, err := s.adminDashboard(ctx)
	return err
}

func countPendingVerification(apps []models.Application) int {
	n := 0
	for i := range apps {
		if lifecycle.Derive(&apps[i], apps[i].Certificate) == lifecycle.StateAwaitingVerification {
			n++
		}
	}
	return n
}
