package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/app/services"
	"github.com/yigit/internportal/internal/middleware"
	"github.com/yigit/internportal/internal/pkg/helpers"
)

// InternshipController handles internship postings
type InternshipController struct {
	internshipService *services.InternshipService
	logger            zerolog.Logger
}

// NewInternshipController creates a new InternshipController
func NewInternshipController(internshipService *services.InternshipService, logger zerolog.Logger) *InternshipController {
	return &InternshipController{
		internshipService: internshipService,
		logger:            logger,
	}
}

// ListInternships lists the postings visible to the caller
// @Summary List internships
// @Description Students and faculty only see their own department; students only see active postings.
// @Tags internships
// @Produce json
// @Security BearerAuth
// @Param departmentId query string false "Department filter (admins)" Format(uuid)
// @Param active query bool false "Only active postings"
// @Param page query int false "Page number (default 1)" minimum(1)
// @Param size query int false "Page size (default 10, max 100)" minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.InternshipListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 403 {object} dto.ErrorResponse "Caller has no department"
// @Router /internships [get]
func (c *InternshipController) ListInternships(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	departmentID, ok := optionalUUIDQuery(ctx, "departmentId")
	if !ok {
		return
	}

	page := helpers.ParsePage(ctx)
	activeOnly, _ := strconv.ParseBool(ctx.Query("active"))

	internships, total, err := c.internshipService.ListInternships(ctx.Request.Context(), viewer, repositories.InternshipFilter{
		DepartmentID: departmentID,
		ActiveOnly:   activeOnly,
		Offset:       page.Offset(),
		Limit:        page.Limit(),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.InternshipListResponse{
		Internships: make([]dto.InternshipResponse, 0, len(internships)),
		Pagination:  page.Info(total),
	}
	for _, i := range internships {
		resp.Internships = append(resp.Internships, dto.NewInternshipResponse(i))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetInternship returns one posting
// @Summary Get internship
// @Tags internships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.InternshipResponse}
// @Failure 404 {object} dto.ErrorResponse "Internship not found"
// @Router /internships/{id} [get]
func (c *InternshipController) GetInternship(ctx *gin.Context) {
	id, ok := uuidParam(ctx, "id", "Internship")
	if !ok {
		return
	}

	internship, err := c.internshipService.GetInternship(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInternshipResponse(internship)))
}

// CreateInternship posts a new internship
// @Summary Create internship
// @Description Faculty always post to their own department; admins must name one. Active postings notify the department's students.
// @Tags internships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateInternshipRequest true "Posting"
// @Success 201 {object} dto.APIResponse{data=dto.InternshipResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /internships [post]
func (c *InternshipController) CreateInternship(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}

	var req dto.CreateInternshipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	internship, err := c.internshipService.CreateInternship(ctx.Request.Context(), viewer, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("internshipID", internship.ID.String()).Str("facultyID", viewer.ID.String()).Msg("Internship posted")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewInternshipResponse(internship)))
}

// UpdateInternship patches a posting
// @Summary Update internship
// @Tags internships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID" Format(uuid)
// @Param request body dto.UpdateInternshipRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.InternshipResponse}
// @Failure 403 {object} dto.ErrorResponse "Not the posting faculty"
// @Failure 404 {object} dto.ErrorResponse "Internship not found"
// @Router /internships/{id} [put]
func (c *InternshipController) UpdateInternship(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Internship")
	if !ok {
		return
	}

	var req dto.UpdateInternshipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	internship, err := c.internshipService.UpdateInternship(ctx.Request.Context(), viewer, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewInternshipResponse(internship)))
}

// DeleteInternship removes a posting and its applications
// @Summary Delete internship
// @Tags internships
// @Security BearerAuth
// @Param id path string true "Internship ID" Format(uuid)
// @Success 204 "Internship deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the posting faculty"
// @Failure 404 {object} dto.ErrorResponse "Internship not found"
// @Router /internships/{id} [delete]
func (c *InternshipController) DeleteInternship(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Internship")
	if !ok {
		return
	}

	if err := c.internshipService.DeleteInternship(ctx.Request.Context(), viewer, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("internshipID", id.String()).Msg("Internship deleted")
	ctx.Status(http.StatusNoContent)
}
