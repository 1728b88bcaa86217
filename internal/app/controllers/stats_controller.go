package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/services"
	"github.com/yigit/internportal/internal/middleware"
)

// StatsController serves the role dashboards
type StatsController struct {
	statsService *services.StatsService
}

// NewStatsController creates a new StatsController
func NewStatsController(statsService *services.StatsService) *StatsController {
	return &StatsController{statsService: statsService}
}

// Dashboard returns the dashboard of the caller's role
// @Summary Dashboard statistics
// @Description Students get active/completed counts; faculty get department and own-posting counts; admins get portal totals.
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentDashboard} "Student dashboard"
// @Success 200 {object} dto.APIResponse{data=dto.FacultyDashboard} "Faculty dashboard"
// @Success 200 {object} dto.APIResponse{data=dto.AdminDashboard} "Admin dashboard"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /stats/dashboard [get]
func (c *StatsController) Dashboard(ctx *gin.Context) {
	viewer, ok := caller(ctx)
	if !ok {
		return
	}

	var (
		data interface{}
		err  error
	)
	switch viewer.Role {
	case models.RoleAdmin:
		data, err = c.statsService.AdminDashboard(ctx.Request.Context(), viewer)
	case models.RoleFaculty:
		data, err = c.statsService.FacultyDashboard(ctx.Request.Context(), viewer)
	default:
		data, err = c.statsService.StudentDashboard(ctx.Request.Context(), viewer)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}
