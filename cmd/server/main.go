package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"sacco-returns/internal/adapters/http/middleware"
	"sacco-returns/internal/adapters/http/routes"
	"sacco-returns/internal/config"
	"sacco-returns/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "sacco-returns/docs" // Swagger docs
)

// @title SACCO Returns API
// @version 1.0
// @description Monthly return filing and compliance monitoring for regulated SACCOs

// @contact.name API Support
// @contact.email support@returns.sacco.go.ke

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database (migrates the schema)
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Bootstrap the first System_Admin
	if err := config.NewSeeder(db, cfg.Seed).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed database: %v", err)
	}

	// Optional summary cache
	rdb := config.ConnectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	svc := routes.NewServices(db, cfg, rdb)

	// Daily compliance sweep
	cronService := services.NewCronService(cfg.CronSpec, svc.Compliance, svc.Auth)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SACCO Returns API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    cfg.Upload.MaxBytes + 1024*1024,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, svc, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
