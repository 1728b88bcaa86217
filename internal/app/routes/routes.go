package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/internportal/internal/app/controllers"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/middleware"
)

// Controllers bundles the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth        *controllers.AuthController
	Department  *controllers.DepartmentController
	Profile     *controllers.ProfileController
	Internship  *controllers.InternshipController
	Application *controllers.ApplicationController
	Certificate *controllers.CertificateController
	Stats       *controllers.StatsController
	Function    *controllers.FunctionController
	Storage     *controllers.StorageController // nil unless the local storage driver is used
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	functionLimiter *middleware.RateLimiter,
) {
	// API version group
	v1 := router.Group("/api/v1")
	v1.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", ctrl.Auth.Signup)
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/refresh", ctrl.Auth.RefreshToken)
		auth.POST("/logout", ctrl.Auth.Logout)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", ctrl.Auth.Me)

		departments := authenticated.Group("/departments")
		{
			departments.GET("", ctrl.Department.GetAllDepartments)
			departments.GET("/:id", ctrl.Department.GetDepartmentByID)
			departments.GET("/:id/students", ctrl.Profile.ListDepartmentStudents)
			departments.GET("/:id/applications", ctrl.Application.ListDepartmentApplications)

			departmentsAdmin := departments.Group("")
			departmentsAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				departmentsAdmin.POST("", ctrl.Department.CreateDepartment)
				departmentsAdmin.PUT("/:id", ctrl.Department.UpdateDepartment)
				departmentsAdmin.DELETE("/:id", ctrl.Department.DeleteDepartment)
			}
		}

		profiles := authenticated.Group("/profiles")
		{
			profiles.PUT("/me", ctrl.Profile.UpdateMyProfile)
			profiles.GET("/:id", ctrl.Profile.GetProfile)
		}

		internships := authenticated.Group("/internships")
		{
			internships.GET("", ctrl.Internship.ListInternships)
			internships.GET("/:id", ctrl.Internship.GetInternship)
			internships.POST("/:id/applications", ctrl.Application.CreateApplication)

			// Posting management; ownership is checked per posting
			internshipsStaff := internships.Group("")
			internshipsStaff.Use(authMiddleware.RoleRequired(models.RoleFaculty, models.RoleAdmin))
			{
				internshipsStaff.POST("", ctrl.Internship.CreateInternship)
				internshipsStaff.PUT("/:id", ctrl.Internship.UpdateInternship)
				internshipsStaff.DELETE("/:id", ctrl.Internship.DeleteInternship)
			}
		}

		applications := authenticated.Group("/applications")
		{
			applications.GET("/mine", ctrl.Application.ListMyApplications)
			applications.GET("/:id", ctrl.Application.GetApplication)
			applications.DELETE("/:id", ctrl.Application.RemoveApplication)
			applications.POST("/:id/certificate", ctrl.Application.UploadCertificate)
			applications.GET("/:id/certificate/url", ctrl.Application.CertificateURL)
			applications.POST("/:id/complete", ctrl.Application.MarkComplete)
		}

		certificates := authenticated.Group("/certificates")
		certificates.Use(authMiddleware.RoleRequired(models.RoleFaculty, models.RoleAdmin))
		{
			certificates.GET("/centre", ctrl.Certificate.CertificateCentre)
			certificates.POST("/:id/verify", ctrl.Certificate.VerifyCertificate)
			certificates.POST("/:id/reject", ctrl.Certificate.RejectCertificate)
		}

		authenticated.GET("/stats/dashboard", ctrl.Stats.Dashboard)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Data:      gin.H{"status": "ok"},
			Timestamp: time.Now(),
		})
	})

	// --- Privileged functions: bare payloads, {error} failures ---
	functions := router.Group("/functions/v1")
	if functionLimiter != nil {
		functions.Use(functionLimiter.Middleware())
	}
	{
		functions.OPTIONS("/:name", ctrl.Function.Preflight)
		functions.POST("/manage-faculty", ctrl.Function.ManageFaculty)
		functions.POST("/manage-students", ctrl.Function.ManageStudents)
		functions.POST("/send-internship-notification", ctrl.Function.SendInternshipNotification)
		functions.POST("/send-verification-notification", ctrl.Function.SendVerificationNotification)
	}

	// Signed downloads from the local object store
	if ctrl.Storage != nil {
		router.GET("/storage/:bucket/*key", ctrl.Storage.Download)
	}
}
