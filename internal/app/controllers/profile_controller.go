package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/services"
	"github.com/yigit/internportal/internal/middleware"
)

// ProfileController serves profiles with the viewer dependent field filter
type ProfileController struct {
	profileService *services.ProfileService
}

// NewProfileController creates a new ProfileController
func NewProfileController(profileService *services.ProfileService) *ProfileController {
	return &ProfileController{profileService: profileService}
}

// GetProfile returns a profile filtered for the caller
// @Summary Get profile
// @Description Owners and admins see every field. Faculty viewing an applicant to one of their internships do not see email and phone; everyone else also loses the resume URL.
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid profile ID"
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Router /profiles/{id} [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id", "Profile")
	if !ok {
		return
	}

	profile, err := c.profileService.GetProfile(ctx.Request.Context(), viewer, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// UpdateMyProfile patches the caller's own profile
// @Summary Update own profile
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateMyProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Router /profiles/me [put]
func (c *ProfileController) UpdateMyProfile(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}

	var req dto.UpdateMyProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	profile, err := c.profileService.UpdateMyProfile(ctx.Request.Context(), viewer, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// ListDepartmentStudents lists the students of a department
// @Summary List department students
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Department ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]dto.ProfileResponse}
// @Failure 403 {object} dto.ErrorResponse "Outside the caller's department"
// @Router /departments/{id}/students [get]
func (c *ProfileController) ListDepartmentStudents(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}
	departmentID, ok := uuidParam(ctx, "id", "Department")
	if !ok {
		return
	}

	students, err := c.profileService.ListDepartmentStudents(ctx.Request.Context(), viewer, departmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(students))
}
