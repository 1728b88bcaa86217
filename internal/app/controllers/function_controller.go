package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/middleware"
)

// AccountManager runs the privileged account actions
type AccountManager interface {
	ManageFaculty(ctx context.Context, caller auth.Caller, req *dto.ManageAccountRequest) (interface{}, error)
	ManageStudents(ctx context.Context, caller auth.Caller, req *dto.ManageAccountRequest) (interface{}, error)
}

// NotificationSender dispatches the two notification emails
type NotificationSender interface {
	SendInternshipNotification(ctx context.Context, req dto.InternshipNotificationRequest) (*dto.NotificationResult, error)
	SendVerificationNotification(ctx context.Context, req dto.VerificationNotificationRequest) (*dto.NotificationResult, error)
}

// CallerResolver authenticates an Authorization header
type CallerResolver interface {
	ResolveBearer(ctx context.Context, authHeader string) (auth.Caller, error)
}

// FunctionController serves /functions/v1. Unlike /api/v1 it answers with
// the bare payload on success and {error} on failure.
type FunctionController struct {
	accounts      AccountManager
	notifications NotificationSender
	callers       CallerResolver
	logger        zerolog.Logger
}

// NewFunctionController creates a new FunctionController
func NewFunctionController(accounts AccountManager, notifications NotificationSender, callers CallerResolver, logger zerolog.Logger) *FunctionController {
	return &FunctionController{
		accounts:      accounts,
		notifications: notifications,
		callers:       callers,
		logger:        logger,
	}
}

// Preflight answers CORS preflight requests
// @Summary CORS preflight
// @Tags functions
// @Success 200 {string} string "ok"
// @Router /functions/v1/{name} [options]
func (c *FunctionController) Preflight(ctx *gin.Context) {
	ctx.String(http.StatusOK, "ok")
}

// ManageFaculty handles the admin-only faculty account actions
// @Summary Manage faculty accounts
// @Description Actions: reset_password, delete_user, create_faculty, update_profile. Admin only.
// @Tags functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ManageAccountRequest true "Action and its arguments"
// @Success 200 {object} dto.FunctionResult
// @Failure 400 {object} dto.FunctionError
// @Failure 401 {object} dto.FunctionError
// @Failure 403 {object} dto.FunctionError
// @Router /functions/v1/manage-faculty [post]
func (c *FunctionController) ManageFaculty(ctx *gin.Context) {
	c.manageAccounts(ctx, c.accounts.ManageFaculty)
}

// ManageStudents handles the student account actions
// @Summary Manage student accounts
// @Description Actions: create_one, bulk_create, update_profile, reset_password, delete_user. Admin or faculty; faculty are scoped to their department.
// @Tags functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ManageAccountRequest true "Action and its arguments"
// @Success 200 {object} dto.FunctionResult "bulk_create answers with dto.BulkCreateResponse"
// @Failure 400 {object} dto.FunctionError
// @Failure 401 {object} dto.FunctionError
// @Failure 403 {object} dto.FunctionError
// @Router /functions/v1/manage-students [post]
func (c *FunctionController) ManageStudents(ctx *gin.Context) {
	c.manageAccounts(ctx, c.accounts.ManageStudents)
}

type manageFunc func(ctx context.Context, caller auth.Caller, req *dto.ManageAccountRequest) (interface{}, error)

func (c *FunctionController) manageAccounts(ctx *gin.Context, run manageFunc) {
	caller, err := c.callers.ResolveBearer(ctx.Request.Context(), ctx.GetHeader("Authorization"))
	if err != nil {
		c.fail(ctx, err)
		return
	}

	var req dto.ManageAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.FunctionError{Error: "Invalid JSON body"})
		return
	}

	result, err := run(ctx.Request.Context(), caller, &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("action", req.Action).Str("callerID", caller.ID.String()).Msg("Account action failed")
		c.fail(ctx, err)
		return
	}

	c.logger.Info().Str("action", req.Action).Str("callerID", caller.ID.String()).Msg("Account action completed")
	ctx.JSON(http.StatusOK, result)
}

// SendInternshipNotification emails every student of a department about a posting
// @Summary Send internship notification
// @Tags functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.InternshipNotificationRequest true "Internship and department"
// @Success 200 {object} dto.NotificationResult
// @Failure 400 {object} dto.FunctionError
// @Failure 401 {object} dto.FunctionError
// @Failure 404 {object} dto.FunctionError
// @Router /functions/v1/send-internship-notification [post]
func (c *FunctionController) SendInternshipNotification(ctx *gin.Context) {
	if _, err := c.callers.ResolveBearer(ctx.Request.Context(), ctx.GetHeader("Authorization")); err != nil {
		c.fail(ctx, err)
		return
	}

	var req dto.InternshipNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.FunctionError{Error: "Invalid JSON body"})
		return
	}

	result, err := c.notifications.SendInternshipNotification(ctx.Request.Context(), req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// SendVerificationNotification emails every faculty member of a department
// about a certificate awaiting verification
// @Summary Send verification notification
// @Tags functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VerificationNotificationRequest true "Certificate and department"
// @Success 200 {object} dto.NotificationResult
// @Failure 400 {object} dto.FunctionError
// @Failure 401 {object} dto.FunctionError
// @Router /functions/v1/send-verification-notification [post]
func (c *FunctionController) SendVerificationNotification(ctx *gin.Context) {
	if _, err := c.callers.ResolveBearer(ctx.Request.Context(), ctx.GetHeader("Authorization")); err != nil {
		c.fail(ctx, err)
		return
	}

	var req dto.VerificationNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.FunctionError{Error: "Invalid JSON body"})
		return
	}

	result, err := c.notifications.SendVerificationNotification(ctx.Request.Context(), req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *FunctionController) fail(ctx *gin.Context, err error) {
	status, _ := middleware.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg("Function failed")
	}
	ctx.AbortWithStatusJSON(status, dto.FunctionError{Error: middleware.ErrorMessage(err, status)})
}
