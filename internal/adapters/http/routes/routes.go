package routes

import (
	"citycare-queue/internal/adapters/http/handlers"
	"citycare-queue/internal/adapters/http/middleware"
	"citycare-queue/internal/adapters/persistence/repositories"
	"citycare-queue/internal/config"
	"citycare-queue/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Services bundles the long-lived services main needs to manage
type Services struct {
	Dispatch *services.DispatchService
	Notify   *services.NotifyService
	Cron     *services.CronService
}

// Setup wires repositories, services and handlers onto the app
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *Services {
	// Repositories
	patientRepo := repositories.NewPatientRepository(db)
	queueRepo := repositories.NewQueueRepository(db)
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Services
	notifyService := services.NewNotifyService()
	dispatchService := services.NewDispatchService(patientRepo, queueRepo, notifyService, cfg.Queue.AvgServiceMinutes)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	statsService := services.NewStatsService(dispatchService, notifyService, patientRepo, queueRepo)
	cronService := services.NewCronService(dispatchService, refreshTokenRepo)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	patientHandler := handlers.NewPatientHandler(dispatchService)
	queueHandler := handlers.NewQueueHandler(dispatchService)
	displayHandler := handlers.NewDisplayHandler(dispatchService, notifyService)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Health & docs
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api/v1")
	api.Get("/", healthHandler.APIInfo)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
	auth.Post("/staff", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), authHandler.CreateStaff)

	// Patient routes (registration and tracking are public, kiosk-facing)
	patients := api.Group("/patients")
	patients.Post("/register", middleware.RegisterRateLimiter(), patientHandler.Register)
	patients.Get("/track/:token", middleware.NoCacheHeaders(), patientHandler.Track)
	patients.Get("/", middleware.AuthMiddleware(cfg), middleware.StaffOrAdmin(), patientHandler.List)
	patients.Get("/:id", middleware.AuthMiddleware(cfg), middleware.StaffOrAdmin(), patientHandler.GetByID)

	// Queue routes (staff dispatch console)
	queue := api.Group("/queue", middleware.AuthMiddleware(cfg), middleware.StaffOrAdmin())
	queue.Get("/:department", middleware.NoCacheHeaders(), queueHandler.GetQueue)
	queue.Post("/:department/call-next", queueHandler.CallNext)
	queue.Patch("/:department/state", queueHandler.SetState)
	queue.Post("/complete/:id", queueHandler.Complete)
	queue.Post("/skip/:id", queueHandler.Skip)
	queue.Post("/retriage/:id", queueHandler.Retriage)

	// Display routes (public TV boards)
	display := api.Group("/display")
	display.Get("/status", middleware.NoCacheHeaders(), displayHandler.LiveStatus)
	display.Get("/events", displayHandler.GlobalEvents)
	display.Get("/:department/events", displayHandler.DepartmentEvents)

	// Stats routes (staff dashboard)
	stats := api.Group("/stats", middleware.AuthMiddleware(cfg), middleware.StaffOrAdmin())
	stats.Get("/dashboard", statsHandler.Dashboard)
	stats.Get("/history", statsHandler.History)

	return &Services{
		Dispatch: dispatchService,
		Notify:   notifyService,
		Cron:     cronService,
	}
}
