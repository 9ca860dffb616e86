package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/samirrijal/geocover/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL and documentation routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	clock := deps.clock()

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware(clock))

	// Rate limiting per IP, shared across replicas when a Valkey store is set
	maxReqs, window := deps.RateLimitMax, deps.RateLimitWindow
	if maxReqs <= 0 {
		maxReqs = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	limiterCfg := limiter.Config{
		Max:        maxReqs,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/v1/health" || c.Path() == "/metrics"
		},
	}
	if deps.Limiter != nil {
		limiterCfg.Storage = deps.Limiter
	}
	app.Use(limiter.New(limiterCfg))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware("/metrics"))

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecation headers for the unversioned routes
	app.Use(DeprecationMiddleware(clock, legacyRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 with per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/coverage", timeout.NewWithContext(CoverageHandler(deps), requestTimeout))
	v1.Post("/leftover", timeout.NewWithContext(LeftoverHandler(deps), requestTimeout))

	// Legacy unversioned route, same contract as /v1/coverage
	app.Post("/coverage", timeout.NewWithContext(CoverageHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	specPath := deps.OpenAPIPath
	if specPath == "" {
		specPath = "api/openapi.yaml"
	}
	SetupDocs(app, specPath)
}
