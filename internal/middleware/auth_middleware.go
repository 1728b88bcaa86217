package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appAuth "github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "roleType"
	ContextCaller = "caller"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	authz      *appAuth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, authz *appAuth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authz:      authz,
	}
}

// JWTAuth validates the bearer token and loads the caller's stored profile.
// The role used for every later check is the stored one, not the token claim.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		claims, err := m.parseBearer(authHeader)
		if err != nil {
			if errors.Is(err, apperrors.ErrTokenExpired) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		userID, _ := claims.UserID()
		caller, err := m.authz.ResolveCaller(c.Request.Context(), userID)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(ContextUserID, caller.ID)
		c.Set(ContextEmail, caller.Email)
		c.Set(ContextRole, string(caller.Role))
		c.Set(ContextCaller, caller)

		c.Next()
	}
}

// ResolveBearer authenticates an Authorization header value and loads the
// caller. Every failure wraps apperrors.ErrUnauthenticated.
func (m *AuthMiddleware) ResolveBearer(ctx context.Context, authHeader string) (appAuth.Caller, error) {
	claims, err := m.parseBearer(authHeader)
	if err != nil {
		return appAuth.Caller{}, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}
	userID, _ := claims.UserID()
	return m.authz.ResolveCaller(ctx, userID)
}

func (m *AuthMiddleware) parseBearer(authHeader string) (*auth.Claims, error) {
	tokenString, err := auth.ExtractBearerToken(authHeader)
	if err != nil {
		return nil, err
	}
	return m.jwtService.Parse(tokenString)
}

// RoleRequired middleware to check if user has one of the given roles
func (m *AuthMiddleware) RoleRequired(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		if err := m.authz.RequireRole(caller, roles...); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied")
			errorDetail = errorDetail.WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.APIResponse{Error: errorDetail, Timestamp: time.Now()})
			return
		}

		c.Next()
	}
}

// GetCaller returns the caller loaded by JWTAuth
func GetCaller(c *gin.Context) (appAuth.Caller, bool) {
	v, exists := c.Get(ContextCaller)
	if !exists {
		return appAuth.Caller{}, false
	}
	caller, ok := v.(appAuth.Caller)
	return caller, ok
}

// GetUserID returns the authenticated user's id
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.APIResponse{Error: errorDetail, Timestamp: time.Now()})
}
