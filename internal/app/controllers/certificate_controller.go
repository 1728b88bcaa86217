package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/services"
	"github.com/yigit/internportal/internal/middleware"
)

// CertificateController handles certificate review
type CertificateController struct {
	certificateService *services.CertificateService
	logger             zerolog.Logger
}

// NewCertificateController creates a new CertificateController
func NewCertificateController(certificateService *services.CertificateService, logger zerolog.Logger) *CertificateController {
	return &CertificateController{
		certificateService: certificateService,
		logger:             logger,
	}
}

// VerifyCertificate verifies the current certificate of an application
// @Summary Verify certificate
// @Description Faculty of the student's department or admins. Only the current certificate of an application can be reviewed.
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.CertificateResponse}
// @Failure 403 {object} dto.ErrorResponse "Outside the reviewer's department"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Failure 409 {object} dto.ErrorResponse "Not reviewable in its current state"
// @Router /certificates/{id}/verify [post]
func (c *CertificateController) VerifyCertificate(ctx *gin.Context) {
	reviewer, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Certificate")
	if !ok {
		return
	}

	cert, err := c.certificateService.VerifyCertificate(ctx.Request.Context(), reviewer, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("certificateID", id.String()).Str("reviewerID", reviewer.ID.String()).Msg("Certificate verified")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCertificateResponse(cert)))
}

// RejectCertificate rejects the current certificate with a reason
// @Summary Reject certificate
// @Tags certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID" Format(uuid)
// @Param request body dto.RejectCertificateRequest true "Rejection reason"
// @Success 200 {object} dto.APIResponse{data=dto.CertificateResponse}
// @Failure 400 {object} dto.ErrorResponse "Reason missing"
// @Failure 403 {object} dto.ErrorResponse "Outside the reviewer's department"
// @Failure 409 {object} dto.ErrorResponse "Not reviewable in its current state"
// @Router /certificates/{id}/reject [post]
func (c *CertificateController) RejectCertificate(ctx *gin.Context) {
	reviewer, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Certificate")
	if !ok {
		return
	}

	var req dto.RejectCertificateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	cert, err := c.certificateService.RejectCertificate(ctx.Request.Context(), reviewer, id, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("certificateID", id.String()).Str("reviewerID", reviewer.ID.String()).Msg("Certificate rejected")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewCertificateResponse(cert)))
}

// CertificateCentre lists verified certificates grouped by company
// @Summary Certificate centre
// @Description Verified certificates of a department, newest first, grouped by company. Faculty with a department are pinned to it.
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param department_id query string false "Department (admins)" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]dto.CertificateCentreGroup}
// @Failure 403 {object} dto.ErrorResponse "Faculty or admin only"
// @Router /certificates/centre [get]
func (c *CertificateController) CertificateCentre(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	departmentID, ok := optionalUUIDQuery(ctx, "department_id")
	if !ok {
		return
	}

	groups, err := c.certificateService.CertificateCentre(ctx.Request.Context(), viewer, departmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(groups))
}
