package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey       string
	AccessTokenExp  time.Duration
	RefreshTokenExp time.Duration
	TokenIssuer     string
}

// JWTService signs access tokens and mints opaque refresh tokens
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// Claims carried by an access token. The subject is the profile id.
// Role is informational only; authorization reloads the stored profile.
type Claims struct {
	Email string          `json:"email"`
	Role  models.RoleType `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenPair is what login, signup and refresh hand back to the client
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
	RefreshExpiresAt time.Time
}

// Issue signs an access token for the profile and mints a refresh token.
// Persisting the refresh token is the caller's job.
func (s *JWTService) Issue(profile *models.Profile) (*TokenPair, error) {
	now := s.now()
	claims := &Claims{
		Email: profile.Email,
		Role:  profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.TokenIssuer,
			Subject:   profile.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExp)),
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     uuid.NewString(),
		AccessExpiresIn:  s.config.AccessTokenExp,
		RefreshExpiresIn: s.config.RefreshTokenExp,
		RefreshExpiresAt: now.Add(s.config.RefreshTokenExp),
	}, nil
}

// Parse verifies an access token. Expired tokens wrap
// apperrors.ErrTokenExpired, anything else apperrors.ErrTokenInvalid.
func (s *JWTService) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithIssuer(s.config.TokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, apperrors.ErrTokenInvalid
	}
	if id, err := claims.UserID(); err != nil || id == uuid.Nil {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

// ExtractBearerToken strips quotes and the optional "Bearer " prefix
func ExtractBearerToken(authHeader string) (string, error) {
	fields := strings.Fields(strings.Trim(authHeader, "\"'"))
	switch {
	case len(fields) == 2 && strings.EqualFold(fields[0], "Bearer"):
		return fields[1], nil
	case len(fields) == 1 && !strings.EqualFold(fields[0], "Bearer"):
		return fields[0], nil
	}
	return "", apperrors.ErrTokenInvalid
}
