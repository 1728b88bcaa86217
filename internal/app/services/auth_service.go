package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/auth"
)

// AuthService handles signup, login and token refresh
type AuthService struct {
	identity       IdentityProvider
	profileRepo    repositories.IProfileRepository
	tokenRepo      repositories.ITokenRepository
	departmentRepo repositories.IDepartmentRepository
	jwtService     *auth.JWTService
	logger         zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	identity IdentityProvider,
	profileRepo repositories.IProfileRepository,
	tokenRepo repositories.ITokenRepository,
	departmentRepo repositories.IDepartmentRepository,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		identity:       identity,
		profileRepo:    profileRepo,
		tokenRepo:      tokenRepo,
		departmentRepo: departmentRepo,
		jwtService:     jwtService,
		logger:         logger,
	}
}

// Signup registers a student in an existing department
func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, apperrors.NewValidationError("departmentId", "departmentId must be a valid UUID")
	}
	if _, err := s.departmentRepo.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	profile, err := s.identity.CreateUser(ctx, NewIdentity{
		Email:    req.Email,
		Password: req.Password,
		FullName: strings.TrimSpace(req.FullName),
		Role:     models.RoleStudent,
	})
	if err != nil {
		return nil, err
	}

	patch := repositories.ProfilePatch{DepartmentID: &departmentID}
	if batch := strings.TrimSpace(req.Batch); batch != "" {
		patch.Batch = &batch
	}
	if err := s.profileRepo.Patch(ctx, profile.ID, patch); err != nil {
		return nil, fmt.Errorf("error assigning department: %w", err)
	}

	profile, err = s.profileRepo.GetByID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return s.authResponse(ctx, profile)
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}

	profile, err := s.identity.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.authResponse(ctx, profile)
}

// RefreshToken rotates a refresh token into a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	userID, _, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}

	// Revoke old token to prevent reuse
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.generateTokenResponse(ctx, profile)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.RevokeToken(ctx, refreshToken)
}

// Me returns the caller's own profile
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProfileResponse(profile)
	return &resp, nil
}

func (s *AuthService) authResponse(ctx context.Context, profile *models.Profile) (*dto.AuthResponse, error) {
	token, err := s.generateTokenResponse(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, Profile: dto.NewProfileResponse(profile)}, nil
}

// generateTokenResponse creates the token pair and stores the refresh token
func (s *AuthService) generateTokenResponse(ctx context.Context, profile *models.Profile) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.Issue(profile)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, profile.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(pair.AccessExpiresIn.Seconds()),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn.Seconds()),
	}, nil
}
