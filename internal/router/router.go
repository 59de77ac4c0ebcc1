package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/eventos-api/internal/handler"
	"github.com/iliyamo/eventos-api/internal/metrics"
	"github.com/iliyamo/eventos-api/internal/middleware"
	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/utils"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Comments *handler.CommentHandler
	Health   *handler.HealthHandler
}

// New builds the Echo instance with the global middleware chain and every
// route registered.  limiter may be nil to leave the auth endpoints
// unthrottled.
func New(log zerolog.Logger, dev bool, tokens *utils.TokenService, limiter *middleware.RateLimiter, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(dev)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())

	RegisterRoutes(e, h.Health)
	RegisterAuth(e, h.Auth, tokens, limiter)
	RegisterEvents(e, h.Events, tokens)
	RegisterComments(e, h.Comments, tokens)
	return e
}

// RegisterRoutes registers the probes and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers signup, login and refresh under /api/auth plus the
// authenticated /api/auth/me and the admin-only user listing, served at
// /api/users/allUsers and /api/users.  The rate limiter, when present,
// guards the whole /api/auth group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *utils.TokenService, limiter *middleware.RateLimiter) {
	g := e.Group("/api/auth")
	if limiter != nil {
		g.Use(limiter.Middleware())
	}
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.GET("/me", a.Me, middleware.JWTAuth(tokens))

	users := e.Group("/api/users", middleware.JWTAuth(tokens), middleware.RequireRole(model.RoleAdmin))
	users.GET("/allUsers", a.ListUsers)
	users.GET("", a.ListUsers)
}

// RegisterEvents registers /api/events.  Reads are public; writes require
// a valid access token.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, tokens *utils.TokenService) {
	g := e.Group("/api/events")
	g.GET("", h.List)
	g.GET("/user/:userId", h.ListByUser)
	g.GET("/:id", h.Get)

	auth := middleware.JWTAuth(tokens)
	g.POST("/save", h.Save, auth)
	g.PUT("/update", h.Update, auth)
	g.DELETE("/:id", h.Delete, auth)
}

// RegisterComments registers /api/comments.  Reads are public; writes
// require a valid access token.
func RegisterComments(e *echo.Echo, h *handler.CommentHandler, tokens *utils.TokenService) {
	g := e.Group("/api/comments")
	g.GET("/event/:eventId", h.ListByEvent)
	g.GET("/:id", h.Get)

	auth := middleware.JWTAuth(tokens)
	g.POST("/save", h.Save, auth)
	g.PUT("/:id", h.Update, auth)
	g.DELETE("/:id", h.Delete, auth)
}
