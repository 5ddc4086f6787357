package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/ipmap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP. View updates are exempt:
	// maps emit them on every pan frame and the engine debounces them anyway.
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodPost && strings.HasSuffix(c.Path(), "/view")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1
	v1 := app.Group("/v1")
	v1.Get("/clusters", timeout.NewWithContext(ListClustersHandler(deps), requestTimeout))
	v1.Get("/clusters/visible", timeout.NewWithContext(VisibleClustersHandler(deps), requestTimeout))
	v1.Get("/clusters/geojson", timeout.NewWithContext(GeoJSONHandler(deps), requestTimeout))
	v1.Get("/framing", FramingHandler(deps))
	v1.Get("/density", DensityHandler(deps))

	// View sessions
	v1.Post("/sessions", CreateSessionHandler(deps))
	v1.Delete("/sessions/:id", DeleteSessionHandler(deps))
	v1.Post("/sessions/:id/view", UpdateViewHandler(deps))
	v1.Get("/sessions/:id/visible", SessionVisibleHandler(deps))
	v1.Post("/sessions/:id/markers/hover", MarkerHoverHandler(deps))
	v1.Post("/sessions/:id/markers/leave", MarkerLeaveHandler(deps))
	v1.Post("/sessions/:id/markers/click", MarkerClickHandler(deps))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
