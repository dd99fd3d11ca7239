package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/unishare-api/internal/config"
	"github.com/noah-isme/unishare-api/internal/handler"
	"github.com/noah-isme/unishare-api/internal/middleware"
	"github.com/noah-isme/unishare-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	NoteHandler          *handler.NoteHandler
	CommentHandler       *handler.CommentHandler
	ReactionHandler      *handler.ReactionHandler
	NotificationHandler  *handler.NotificationHandler
	ScoreboardHandler    *handler.ScoreboardHandler
	RealtimeHandler      *handler.RealtimeHandler
	AdminActivityHandler *handler.AdminActivityHandler
	HealthChecks         map[string]handler.DependencyCheck
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.Register(api.Group("/realtime", jwtMiddleware))
	}

	// registered ahead of the rate-limited group, whose middleware matches every /api/v1 path
	if deps.NoteHandler != nil || deps.AdminActivityHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireAdmin())
		if deps.NoteHandler != nil {
			deps.NoteHandler.RegisterAdmin(admin.Group("/notes"))
		}
		if deps.AdminActivityHandler != nil {
			deps.AdminActivityHandler.Register(admin.Group("/activity"))
		}
	}

	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 60
	}
	protected := api.Group("", jwtMiddleware, middleware.RateLimit("api", limit, time.Minute))

	if deps.NoteHandler != nil {
		deps.NoteHandler.Register(protected.Group("/notes"))
	}
	if deps.CommentHandler != nil {
		deps.CommentHandler.Register(protected)
	}
	if deps.ReactionHandler != nil {
		deps.ReactionHandler.Register(protected)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(protected.Group("/notifications"))
	}
	if deps.ScoreboardHandler != nil {
		deps.ScoreboardHandler.Register(protected.Group("/scoreboard"))
	}
}
