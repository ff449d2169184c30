package api

import (
	"time"

	"github.com/ajespoo/RoutePlanner/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// AppOptions configures NewApp
type AppOptions struct {
	Handlers *Handlers
	// RateLimiter guards the planning and search endpoints when set
	RateLimiter fiber.Handler
	// ProxyHeader names the header c.IP() reads the client address from.
	// When TrustedProxies is set it is only honoured for those peers.
	ProxyHeader    string
	TrustedProxies []string
}

// NewApp builds the fiber application with middleware and routes
func NewApp(opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:                 "RoutePlanner API",
		ReadTimeout:             5 * time.Second,
		WriteTimeout:            40 * time.Second,
		IdleTimeout:             120 * time.Second,
		ErrorHandler:            ErrorHandler,
		DisableStartupMessage:   true,
		ProxyHeader:             opts.ProxyHeader,
		EnableTrustedProxyCheck: len(opts.TrustedProxies) > 0,
		TrustedProxies:          opts.TrustedProxies,
	})

	app.Use(middleware.NewLogger())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	h := opts.Handlers

	app.Get("/health", h.Health)

	limited := []fiber.Handler{}
	if opts.RateLimiter != nil {
		limited = append(limited, opts.RateLimiter)
	}

	app.Get("/api/routes", append(limited, h.RouteSearch)...)
	app.Get("/routes", append(limited, h.StopRoutes)...)
	app.Get("/api/stops/search", append(limited, h.StopsSearch)...)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	return app
}
