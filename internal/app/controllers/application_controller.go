package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/services"
	"github.com/yigit/internportal/internal/middleware"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/filestorage"
)

// multipartOverhead is the room left for form fields and boundaries on top
// of the certificate itself
const multipartOverhead = 1 << 20

// ApplicationController handles applications and certificate uploads
type ApplicationController struct {
	applicationService *services.ApplicationService
	maxUploadBytes     int64
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService *services.ApplicationService, maxUploadBytes int64, logger zerolog.Logger) *ApplicationController {
	if maxUploadBytes <= 0 {
		maxUploadBytes = filestorage.DefaultMaxUploadBytes
	}
	return &ApplicationController{
		applicationService: applicationService,
		maxUploadBytes:     maxUploadBytes,
		logger:             logger,
	}
}

// CreateApplication marks an internship active for the calling student
// @Summary Mark internship active
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID" Format(uuid)
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 403 {object} dto.ErrorResponse "Only students apply"
// @Failure 404 {object} dto.ErrorResponse "Internship not found"
// @Failure 409 {object} dto.ErrorResponse "Already active or posting closed"
// @Router /internships/{id}/applications [post]
func (c *ApplicationController) CreateApplication(ctx *gin.Context) {
	student, ok := caller(ctx)
	if !ok {
		return
	}
	internshipID, ok := uuidParam(ctx, "id", "Internship")
	if !ok {
		return
	}

	app, err := c.applicationService.CreateApplication(ctx.Request.Context(), student, internshipID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("applicationID", app.ID.String()).Str("studentID", student.ID.String()).Msg("Internship marked active")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewApplicationResponse(app)))
}

// ListMyApplications lists the caller's active internships
// @Summary My active internships
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationListResponse}
// @Failure 403 {object} dto.ErrorResponse "Students only"
// @Router /applications/mine [get]
func (c *ApplicationController) ListMyApplications(ctx *gin.Context) {
	student, ok := caller(ctx)
	if !ok {
		return
	}

	apps, err := c.applicationService.ListMyApplications(ctx.Request.Context(), student)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationListResponse(apps)))
}

// ListDepartmentApplications lists the internship progress of a department
// @Summary Department progress
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Department ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationListResponse}
// @Failure 403 {object} dto.ErrorResponse "Outside the caller's department"
// @Router /departments/{id}/applications [get]
func (c *ApplicationController) ListDepartmentApplications(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	departmentID, ok := uuidParam(ctx, "id", "Department")
	if !ok {
		return
	}

	apps, err := c.applicationService.ListDepartmentApplications(ctx.Request.Context(), viewer, departmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationListResponse(apps)))
}

// GetApplication returns one application
// @Summary Get application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id} [get]
func (c *ApplicationController) GetApplication(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Application")
	if !ok {
		return
	}

	app, err := c.applicationService.GetApplication(ctx.Request.Context(), viewer, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app)))
}

// UploadCertificate uploads the completion certificate of an application
// @Summary Upload certificate
// @Description Multipart upload of a PDF or JPEG (10 MiB max) with the internship start and end dates. A new upload supersedes the previous certificate.
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID" Format(uuid)
// @Param start_date formData string true "Start date (YYYY-MM-DD)"
// @Param end_date formData string true "End date (YYYY-MM-DD)"
// @Param file formData file true "Certificate (PDF or JPEG)"
// @Success 201 {object} dto.APIResponse{data=dto.CertificateResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid dates or file"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 409 {object} dto.ErrorResponse "Certificate already verified"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Failure 500 {object} dto.ErrorResponse "Storage failure"
// @Router /applications/{id}/certificate [post]
func (c *ApplicationController) UploadCertificate(ctx *gin.Context) {
	student, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Application")
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes+multipartOverhead)

	var form dto.UploadCertificateForm
	if err := ctx.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.HandleAPIError(ctx, apperrors.ErrFileTooLarge)
			return
		}
		middleware.HandleBindError(ctx, err)
		return
	}

	upload, err := c.readUpload(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	cert, err := c.applicationService.UploadCertificate(ctx.Request.Context(), student, id, form.StartDate, form.EndDate, upload)
	if err != nil {
		c.logger.Warn().Err(err).Str("applicationID", id.String()).Msg("Certificate upload failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("applicationID", id.String()).Str("certificateID", cert.ID.String()).Msg("Certificate uploaded")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewCertificateResponse(cert)))
}

// readUpload reads the "file" part into memory, at most one byte past the
// limit so that oversize files are detected without buffering them whole.
func (c *ApplicationController) readUpload(ctx *gin.Context) (filestorage.Upload, error) {
	header, err := ctx.FormFile("file")
	if err != nil {
		return filestorage.Upload{}, apperrors.NewValidationError("file", "certificate file is required")
	}

	f, err := header.Open()
	if err != nil {
		return filestorage.Upload{}, apperrors.NewValidationError("file", "certificate file could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, c.maxUploadBytes+1))
	if err != nil {
		return filestorage.Upload{}, apperrors.NewValidationError("file", "certificate file could not be read")
	}

	return filestorage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// MarkComplete marks the internship complete and requests verification
// @Summary Mark complete
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 409 {object} dto.ErrorResponse "No certificate uploaded"
// @Router /applications/{id}/complete [post]
func (c *ApplicationController) MarkComplete(ctx *gin.Context) {
	student, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Application")
	if !ok {
		return
	}

	app, err := c.applicationService.MarkComplete(ctx.Request.Context(), student, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app)))
}

// RemoveApplication removes an internship from the caller's active list
// @Summary Remove application
// @Tags applications
// @Security BearerAuth
// @Param id path string true "Application ID" Format(uuid)
// @Success 204 "Removed"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 409 {object} dto.ErrorResponse "Certificate already verified"
// @Router /applications/{id} [delete]
func (c *ApplicationController) RemoveApplication(ctx *gin.Context) {
	student, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Application")
	if !ok {
		return
	}

	if err := c.applicationService.RemoveApplication(ctx.Request.Context(), student, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// CertificateURL signs a download link for the current certificate
// @Summary Certificate download link
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SignedURLResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "No certificate"
// @Router /applications/{id}/certificate/url [get]
func (c *ApplicationController) CertificateURL(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Application")
	if !ok {
		return
	}

	signed, err := c.applicationService.CertificateURL(ctx.Request.Context(), viewer, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(signed))
}
