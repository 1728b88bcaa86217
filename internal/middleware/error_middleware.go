package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/logger"
)

// ErrorStatus maps an error onto its HTTP status and error code
func ErrorStatus(err error) (int, dto.ErrorCode) {
	switch {
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, dto.ErrorCodeFileTooLarge
	case errors.Is(err, apperrors.ErrInvalidMediaType):
		return http.StatusBadRequest, dto.ErrorCodeInvalidMediaType
	case errors.Is(err, apperrors.ErrInvalidEmail):
		return http.StatusBadRequest, dto.ErrorCodeInvalidEmail
	case errors.Is(err, apperrors.ErrInvalidPassword):
		return http.StatusBadRequest, dto.ErrorCodeInvalidPassword
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrTokenRevoked):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized, dto.ErrorCodeTokenNotFound
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, dto.ErrorCodeUnauthorized
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden
	case errors.Is(err, apperrors.ErrIllegalTransition):
		return http.StatusConflict, dto.ErrorCodeIllegalTransition
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound
	case errors.Is(err, apperrors.ErrEmailAlreadyExists), errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.ErrorCodeConflict
	case errors.Is(err, apperrors.ErrProvider):
		return http.StatusBadRequest, dto.ErrorCodeExternalServiceError
	case errors.Is(err, apperrors.ErrStorage):
		return http.StatusInternalServerError, dto.ErrorCodeStorageError
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer
	}
}

// ErrorMessage is the client facing message of err. Internal failures are
// never echoed back.
func ErrorMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && errors.Is(err, apperrors.ErrStorage) {
			return custom.Error()
		}
		return "Internal server error"
	}
	return err.Error()
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, code := ErrorStatus(err)
	detail := dto.NewErrorDetail(code, ErrorMessage(err, status))

	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Details != nil {
		if field, ok := custom.Details["field"].(string); ok {
			detail.WithField(field)
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, dto.APIResponse{
		Error:     detail,
		Timestamp: time.Now(),
	})
}

// HandleBindError reports a request body that failed binding or validation
func HandleBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.APIResponse{
		Error:     dto.HandleValidationError(err),
		Timestamp: time.Now(),
	})
}
