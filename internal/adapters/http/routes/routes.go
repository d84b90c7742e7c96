package routes

import (
	"time"

	"sacco-returns/internal/adapters/http/handlers"
	"sacco-returns/internal/adapters/http/middleware"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/config"
	"sacco-returns/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services bundles the application services shared by routes and the scheduler
type Services struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Saccos     *services.SaccoService
	Returns    *services.ReturnService
	Compliance *services.ComplianceService
	Reports    *services.ReportService
}

// NewServices wires repositories into services; rdb may be nil
func NewServices(db *gorm.DB, cfg *config.Config, rdb *redis.Client) *Services {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	saccoRepo := repositories.NewSaccoRepository(db)
	returnRepo := repositories.NewReturnRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	compliance := services.NewComplianceService(db, saccoRepo, rdb)

	return &Services{
		Auth:       services.NewAuthService(db, userRepo, refreshTokenRepo, cfg.JWT),
		Users:      services.NewUserService(db, userRepo, saccoRepo, refreshTokenRepo, auditRepo),
		Saccos:     services.NewSaccoService(db, saccoRepo, auditRepo),
		Returns:    services.NewReturnService(db, returnRepo, saccoRepo, auditRepo),
		Compliance: compliance,
		Reports:    services.NewReportService(db, compliance),
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg)
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Users, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)
	saccoHandler := handlers.NewSaccoHandler(svc.Saccos)
	returnHandler := handlers.NewReturnHandler(svc.Returns, cfg.Upload)
	complianceHandler := handlers.NewComplianceHandler(svc.Compliance, svc.Reports)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := middleware.AuthMiddleware(svc.Auth)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	setupAuthRoutes(apiV1.Group("/auth"), authHandler, authRequired)

	// User management routes (System_Admin only)
	userRoutes := apiV1.Group("/users", authRequired, middleware.NoCacheHeaders())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	profileRoutes := apiV1.Group("/profile", authRequired, middleware.NoCacheHeaders())
	setupProfileRoutes(profileRoutes, userHandler)

	// SACCO registry
	saccoRoutes := apiV1.Group("/saccos", authRequired)
	setupSaccoRoutes(saccoRoutes, saccoHandler)

	// Monthly returns
	returnRoutes := apiV1.Group("/returns", authRequired, middleware.NoCacheHeaders())
	setupReturnRoutes(returnRoutes, returnHandler)

	// Compliance reads
	complianceRoutes := apiV1.Group("/compliance", authRequired)
	setupComplianceRoutes(complianceRoutes, complianceHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, authRequired fiber.Handler) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", authRequired, handler.Me)
	router.Post("/logout-all", authRequired, handler.LogoutAll)
}

// setupUserRoutes configures user management routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	// Self or admin
	router.Get("/:id", handler.GetUser)

	router.Use(middleware.AdminOnly())
	router.Get("/", handler.ListUsers)
	router.Post("/", handler.CreateUser)
	router.Put("/:id", handler.UpdateUser)
	router.Post("/:id/deactivate", handler.DeactivateUser)
}

// setupProfileRoutes configures profile routes
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupSaccoRoutes configures SACCO registry routes
func setupSaccoRoutes(router fiber.Router, handler *handlers.SaccoHandler) {
	router.Get("/", middleware.PrivateCacheHeaders(30*time.Second), handler.List)
	router.Get("/search", handler.Search)
	router.Get("/:id", handler.Get)
	router.Post("/", handler.Create)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
	router.Post("/:id/toggle-status", handler.ToggleStatus)
}

// setupReturnRoutes configures monthly return routes
func setupReturnRoutes(router fiber.Router, handler *handlers.ReturnHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id/financial-data", handler.AttachFinancialData)
	router.Post("/:id/documents", handler.AttachDocument)
	router.Post("/:id/submit", handler.Submit)
	router.Post("/:id/begin-review", handler.BeginReview)
	router.Post("/:id/decide", handler.Decide)
	router.Post("/:id/reopen", handler.Reopen)
}

// setupComplianceRoutes configures compliance routes
func setupComplianceRoutes(router fiber.Router, handler *handlers.ComplianceHandler) {
	// SACCO-scoped reads; visibility is checked per SACCO
	router.Get("/saccos/:id/rate", handler.Rate)
	router.Get("/saccos/:id/summary", handler.SaccoSummary)

	// Ministry-wide reads
	ministry := router.Group("", middleware.RegulatorOnly())
	ministry.Get("/low", handler.LowCompliance)
	ministry.Get("/pending-count", handler.PendingCount)
	ministry.Get("/summary", middleware.PrivateCacheHeaders(time.Minute), handler.MinistrySummary)
	ministry.Get("/report.xlsx", handler.Report)
}
