package middleware

import (
	"errors"
	"time"

	"sacco-returns/internal/config"
	"sacco-returns/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const corsMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
const corsHeaders = "Origin,Content-Type,Accept,Authorization,X-Request-ID"

// Setup installs the global middleware chain
func Setup(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "no-referrer",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	// 100 requests per minute per IP across the API
	app.Use(rateLimit(100, "", "Too many requests, please slow down"))

	format := "${time} | ${locals:requestid} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n"
	if !cfg.IsDev() {
		format = "${time} | ${locals:requestid} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n"
	}
	app.Use(logger.New(logger.Config{
		Format:     format,
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
	}))

	corsCfg := cors.Config{
		AllowOrigins: "*",
		AllowMethods: corsMethods,
		AllowHeaders: corsHeaders,
	}
	if !cfg.IsDev() {
		corsCfg.AllowOrigins = cfg.GetAllowedOrigins()
		corsCfg.AllowCredentials = true
	}
	app.Use(cors.New(corsCfg))
}

func rateLimit(max int, suffix, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + suffix
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// AuthRateLimiter allows 5 login or refresh calls per minute per IP
func AuthRateLimiter() fiber.Handler {
	return rateLimit(5, "-auth", "Too many login attempts, please wait a minute")
}

// StrictRateLimiter allows 3 password changes per minute per IP
func StrictRateLimiter() fiber.Handler {
	return rateLimit(3, "-strict", "Please wait before trying again")
}

// CustomErrorHandler renders errors that escape handlers in the API envelope
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return response.Error(c, code, message)
}
