package routes

import (
	"time"

	"github.com/coriplus/coriplus/internal/config"
	"github.com/coriplus/coriplus/internal/handlers"
	"github.com/coriplus/coriplus/internal/middleware"
	"github.com/coriplus/coriplus/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Moderation   *handlers.ModerationHandler
	Message      *handlers.MessageHandler
	Relationship *handlers.RelationshipHandler
	Notification *handlers.NotificationHandler
	Upload       *handlers.UploadHandler
	Site         *handlers.SiteHandler
}

// Setup mounts every route. accounts is consulted on each authenticated
// request so a disabled user's token stops working at once.
func Setup(app *fiber.App, cfg *config.Config, gate *services.AccessGate, accounts middleware.AccountChecker, h Handlers) {
	app.Get("/robots.txt", h.Site.Robots)
	app.Get("/uploads/:file", h.Upload.Serve)
	app.Get("/metrics", middleware.AdminRequired(gate, cfg), adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/legal/privacy", h.Site.PrivacyPolicy)
	api.Get("/legal/terms", h.Site.TermsOfService)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	protected := middleware.JWTProtected(cfg, accounts)
	optional := middleware.JWTOptional(cfg, accounts)

	auth.Post("/logout", protected, h.Auth.Logout)

	// Reports: anyone may flag content
	api.Get("/reports/reasons", h.Moderation.Reasons)
	api.Post("/reports", optional, h.Moderation.CreateReport)

	api.Post("/messages", protected, h.Message.Create)
	api.Get("/messages/:id", optional, h.Message.Get)
	api.Delete("/messages/:id", protected, h.Message.Delete)
	api.Post("/messages/:id/upvote", protected, h.Message.ToggleUpvote)
	api.Get("/feed", protected, h.Message.Feed)

	api.Get("/users/:username/messages", optional, h.Message.ListByUser)
	api.Get("/users/:username/followers", h.Relationship.Followers)
	api.Get("/users/:username/following", h.Relationship.Following)
	api.Post("/users/:username/follow", protected, h.Relationship.Follow)
	api.Delete("/users/:username/follow", protected, h.Relationship.Unfollow)

	api.Get("/notifications", protected, h.Notification.List)
	api.Post("/notifications/seen", protected, h.Notification.MarkSeen)

	// Admin moderation panel: Basic credentials or an admin's bearer token
	admin := api.Group("/admin", middleware.AdminRequired(gate, cfg))
	admin.Get("/", h.Moderation.Dashboard)
	admin.Get("/reports", h.Moderation.ListReports)
	admin.Get("/reports/:id", h.Moderation.GetReport)
	admin.Post("/reports/:id", h.Moderation.ReviewReport)
}
