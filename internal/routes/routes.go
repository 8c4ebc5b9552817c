package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/config"
	handler "timetrack-invoicing-backend/internal/handlers"
	"timetrack-invoicing-backend/internal/repository"
	"timetrack-invoicing-backend/internal/services/auth"
	"timetrack-invoicing-backend/internal/services/invoicing"
	"timetrack-invoicing-backend/internal/services/tracking"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	clientRepo := repository.NewClientRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	invoiceService := invoicing.NewService(invoiceRepo, projectRepo, trackRepo, clientRepo, invoicing.LogNotifier{})
	trackService := tracking.NewService(db, projectRepo, trackRepo)

	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectRepo, invoiceService)
	clientHandler := handler.NewClientHandler(clientRepo)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	trackHandler := handler.NewTrackHandler(trackService)

	// Health check
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/login", authHandler.Login)
	r.POST("/signup", authHandler.Signup)

	authed := r.Group("/")
	authed.Use(handler.AuthRequired(authService))

	authed.GET("/projects.json", projectHandler.List)
	authed.GET("/clients.json", clientHandler.List)
	authed.POST("/clients.json", clientHandler.Create)

	// Invoice routes; ids may carry a .json suffix
	authed.POST("/invoices.json", invoiceHandler.Create)
	invoices := authed.Group("/invoices")
	{
		invoices.GET("/:id", invoiceHandler.Show)
		invoices.PUT("/:id", invoiceHandler.Update)
		invoices.POST("/:id/make_visible.json", invoiceHandler.MakeVisible)
		invoices.GET("/:id/audit_log.json", invoiceHandler.AuditLog)
	}

	// Project-level routes
	projects := authed.Group("/projects/:id")
	{
		projects.GET("/status_period.json", projectHandler.StatusPeriod)
		projects.GET("/invoices.json", invoiceHandler.ListForProject)
		projects.POST("/invoices/:invoice/email_notify.json", invoiceHandler.EmailNotify)

		projects.POST("/tracks.json", trackHandler.Create)
		projects.PUT("/tracks/:track", trackHandler.Update)

		projects.POST("/stopwatches.json", trackHandler.StartStopWatch)
		projects.POST("/stopwatches/:watch/stop.json", trackHandler.StopStopWatch)
		projects.POST("/stopwatches/:watch/resume.json", trackHandler.ResumeStopWatch)
		projects.POST("/stopwatches/:watch/finish.json", trackHandler.FinishStopWatch)
	}
}
