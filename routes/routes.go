package routes

import (
	"database/sql"

	"kidsclub_backend/handlers"
	"kidsclub_backend/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, db *sql.DB, jwtSecret []byte) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, jwtSecret)
	healthHandler := handlers.NewHealthHandler(db)
	programHandler := handlers.NewProgramHandler(db)
	kidHandler := handlers.NewKidHandler(db)
	userHandler := handlers.NewUserHandler(db)
	attendanceHandler := handlers.NewAttendanceHandler(db)
	reportHandler := handlers.NewReportHandler(db)
	transferHandler := handlers.NewTransferHandler(db)

	// Public routes
	r.GET("/health", healthHandler.HealthCheck)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(db, jwtSecret))
	{
		// Program routes
		protected.POST("/programs", programHandler.CreateProgram)
		protected.GET("/programs", programHandler.GetPrograms)

		// Kid routes
		protected.POST("/kids", kidHandler.CreateKid)
		protected.GET("/kids", kidHandler.GetKids)
		protected.GET("/kids/:id", kidHandler.GetKid)
		protected.PUT("/kids/:id", kidHandler.UpdateKid)
		protected.DELETE("/kids/:id", kidHandler.DeleteKid)

		// User routes (admin only)
		protected.POST("/users", userHandler.CreateUser)
		protected.GET("/users", userHandler.GetUsers)
		protected.PUT("/users/:id/programs", userHandler.UpdateUserPrograms)
		protected.DELETE("/users/:id", userHandler.DeleteUser)

		// Attendance routes
		protected.GET("/attendance", attendanceHandler.GetDaySheet)
		protected.PUT("/attendance", attendanceHandler.MarkAttendance)

		// Report routes
		protected.GET("/reports/dashboard", reportHandler.GetDashboard)
		protected.GET("/reports/summary", reportHandler.GetDailySummary)
		protected.GET("/reports/history", reportHandler.GetHistory)
		protected.GET("/reports/kids", reportHandler.GetKidStats)

		// Import/export routes
		protected.POST("/import/kids", transferHandler.ImportKids)
		protected.GET("/export/kids.csv", transferHandler.ExportKidsCSV)
		protected.GET("/export/attendance.csv", transferHandler.ExportAttendanceCSV)
		protected.GET("/export/bundle.zip", transferHandler.ExportBundle)

		// Logout route
		protected.POST("/logout", authHandler.Logout)

		// User info route
		protected.GET("/userinfo", authHandler.GetUserInfo)
	}
}
