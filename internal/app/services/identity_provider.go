package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/auth"
	"github.com/yigit/internportal/internal/pkg/validation"
)

// NewIdentity is an account to create in the identity provider
type NewIdentity struct {
	Email          string
	Password       string
	FullName       string
	Role           models.RoleType
	EmailConfirmed bool
}

// IdentityProvider owns credentials. Profile attributes other than the
// login email are patched through the profile repository.
type IdentityProvider interface {
	CreateUser(ctx context.Context, identity NewIdentity) (*models.Profile, error)
	Authenticate(ctx context.Context, email, password string) (*models.Profile, error)
	UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error
	ResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// LocalIdentityProvider keeps bcrypt hashes on the profiles table
type LocalIdentityProvider struct {
	profiles repositories.IProfileRepository
	tokens   repositories.ITokenRepository
	logger   zerolog.Logger
}

// NewLocalIdentityProvider creates a new LocalIdentityProvider
func NewLocalIdentityProvider(profiles repositories.IProfileRepository, tokens repositories.ITokenRepository, logger zerolog.Logger) *LocalIdentityProvider {
	return &LocalIdentityProvider{
		profiles: profiles,
		tokens:   tokens,
		logger:   logger,
	}
}

// CreateUser creates the account. Duplicate emails come back as provider errors.
func (p *LocalIdentityProvider) CreateUser(ctx context.Context, identity NewIdentity) (*models.Profile, error) {
	email := validation.NormalizeEmail(identity.Email)
	if !validation.IsValidEmail(email) {
		return nil, apperrors.NewValidationError("email", "Invalid email address")
	}
	if !validation.IsValidPassword(identity.Password) {
		return nil, apperrors.NewValidationError("password", fmt.Sprintf("Password must be at least %d characters", validation.PasswordMinLength))
	}
	if !identity.Role.Valid() {
		return nil, apperrors.NewValidationError("role", "Invalid role")
	}

	hash, err := auth.HashPassword(identity.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	profile := &models.Profile{
		Email:          email,
		PasswordHash:   hash,
		FullName:       identity.FullName,
		Role:           identity.Role,
		EmailConfirmed: identity.EmailConfirmed,
	}
	if err := p.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil, apperrors.NewProviderError(err, "A user with this email address has already been registered")
		}
		return nil, err
	}

	p.logger.Info().Str("userID", profile.ID.String()).Str("role", string(profile.Role)).Msg("Identity created")
	return profile, nil
}

// Authenticate checks email and password
func (p *LocalIdentityProvider) Authenticate(ctx context.Context, email, password string) (*models.Profile, error) {
	profile, err := p.profiles.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(profile.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return profile, nil
}

// UpdateEmail changes the login email
func (p *LocalIdentityProvider) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	email = validation.NormalizeEmail(email)
	if !validation.IsValidEmail(email) {
		return apperrors.NewValidationError("email", "Invalid email address")
	}
	if err := p.profiles.UpdateEmail(ctx, userID, email); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return apperrors.NewProviderError(err, "A user with this email address has already been registered")
		}
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewProviderError(err, "User not found")
		}
		return err
	}
	return nil
}

// ResetPassword sets a new password and revokes every refresh token of the user
func (p *LocalIdentityProvider) ResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if !validation.IsValidPassword(newPassword) {
		return apperrors.NewValidationError("new_password", fmt.Sprintf("Password must be at least %d characters", validation.PasswordMinLength))
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := p.profiles.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewProviderError(err, "User not found")
		}
		return err
	}
	if err := p.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		p.logger.Warn().Err(err).Str("userID", userID.String()).Msg("Could not revoke refresh tokens after password reset")
	}
	return nil
}

// DeleteUser removes the account; dependent rows follow the foreign keys
func (p *LocalIdentityProvider) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := p.profiles.Delete(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewProviderError(err, "User not found")
		}
		return apperrors.NewProviderError(err, "Failed to delete user")
	}
	p.logger.Info().Str("userID", userID.String()).Msg("Identity deleted")
	return nil
}
