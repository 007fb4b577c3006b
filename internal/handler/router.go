package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rosterly/staffing-api/internal/middleware"
	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Teachers   *TeacherHandler
	Subjects   *SubjectHandler
	Schedules  *ScheduleHandler
	Classes    *ClassHandler
	Stats      *StatsHandler
	WorkShifts *WorkShiftHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts the API surface under prefix. Staff roles (admin and
// manager) own the write endpoints; teachers get read access plus their own
// stats.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, authSvc *service.AuthService) {
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)

		protected := auth.Group("", middleware.JWT(authSvc))
		protected.POST("/logout", h.Auth.Logout)
		protected.POST("/change-password", h.Auth.ChangePassword)
		protected.GET("/me", h.Auth.Me)
	}

	secured := api.Group("", middleware.JWT(authSvc))

	users := secured.Group("/users", adminOnly)
	{
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.POST("", h.Users.Create)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}

	teachers := secured.Group("/teachers")
	{
		teachers.GET("", h.Teachers.List)
		teachers.GET("/:id", h.Teachers.Get)
		teachers.GET("/:id/qualifications", h.Teachers.Qualifications)
		teachers.GET("/:id/free-slots", h.Teachers.FreeSlots)

		teachers.POST("", staffOnly, h.Teachers.Create)
		teachers.PUT("/:id", staffOnly, h.Teachers.Update)
		teachers.DELETE("/:id", staffOnly, h.Teachers.Delete)
		teachers.POST("/:id/qualifications", staffOnly, h.Teachers.AddQualification)
		teachers.DELETE("/:id/qualifications/:levelId", staffOnly, h.Teachers.RemoveQualification)
	}

	subjects := secured.Group("/subjects")
	{
		subjects.GET("", h.Subjects.List)
		subjects.GET("/:id", h.Subjects.Get)
		subjects.GET("/:id/levels", h.Subjects.Levels)

		subjects.POST("", staffOnly, h.Subjects.Create)
		subjects.PUT("/:id", staffOnly, h.Subjects.Update)
		subjects.POST("/:id/levels", staffOnly, h.Subjects.AddLevel)
	}
	secured.GET("/subject-levels/:levelId", h.Subjects.GetLevel)

	schedules := secured.Group("/schedules")
	{
		schedules.GET("", h.Schedules.List)
		schedules.GET("/:id", h.Schedules.Get)
		schedules.GET("/:id/occurrences", h.Schedules.Occurrences)
		schedules.GET("/:id/leaves", h.Schedules.ListLeaves)

		schedules.POST("", staffOnly, h.Schedules.Create)
		schedules.PUT("/:id", staffOnly, h.Schedules.Update)
		schedules.DELETE("/:id", staffOnly, h.Schedules.Deactivate)
		schedules.POST("/:id/leaves", staffOnly, h.Schedules.CreateLeave)
		schedules.DELETE("/:id/leaves/:leaveId", staffOnly, h.Schedules.DeleteLeave)
	}

	classes := secured.Group("/classes")
	{
		classes.GET("", h.Classes.List)
		classes.GET("/:id", h.Classes.Get)

		classes.POST("", staffOnly, h.Classes.Create)
		classes.PUT("/:id", staffOnly, h.Classes.Update)
		classes.DELETE("/:id", staffOnly, h.Classes.Delete)
		classes.POST("/import", staffOnly, h.Classes.Import)
		classes.POST("/:id/allocate", staffOnly, h.Classes.Assign)
		classes.POST("/:id/reallocate", staffOnly, h.Classes.Reallocate)
		classes.POST("/:id/unassign", staffOnly, h.Classes.Unassign)
		classes.POST("/:id/complete", staffOnly, h.Classes.Complete)
		classes.POST("/:id/cancel", staffOnly, h.Classes.Cancel)
	}

	stats := secured.Group("/stats")
	{
		stats.GET("/me", h.Stats.PersonalStats)
		stats.GET("/summary", staffOnly, h.Stats.TeamSummary)
		stats.GET("/teachers/:id", staffOnly, h.Stats.TeacherStats)
		stats.GET("/export", staffOnly, h.Stats.Export)
		stats.GET("/system", adminOnly, h.Metrics.Snapshot)
	}

	shifts := secured.Group("/work-shifts")
	{
		shifts.GET("", h.WorkShifts.List)
		shifts.POST("", staffOnly, h.WorkShifts.Create)
		shifts.PUT("/:id", staffOnly, h.WorkShifts.Update)
		shifts.DELETE("/:id", staffOnly, h.WorkShifts.Delete)
	}
}
