package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/ratelimit"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Channels   *ChannelHandler
	Messages   *MessageHandler
	ReadStates *ReadStateHandler

	AuthMiddleware echo.MiddlewareFunc
	Limiter        ratelimit.Limiter
	RateLimitAuth  int
	RateLimitAPI   int
	Metrics        *metrics.Metrics

	// Health reports whether backing services are reachable. Nil means always healthy.
	Health func(ctx context.Context) error
	// StaticDir, when set, is served with an index.html fallback for client-side routes.
	StaticDir string
}

// SetupRouter registers all API routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	e.HTTPErrorHandler = HTTPErrorHandler

	e.GET("/health", func(c echo.Context) error {
		if deps.Health != nil {
			if err := deps.Health(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))

	v1 := e.Group("/api/v1")

	// Auth routes: no auth middleware, stricter rate limit
	authGroup := v1.Group("/auth",
		RateLimitMiddleware(deps.Limiter, deps.RateLimitAuth, time.Minute),
	)
	authGroup.POST("/signup", deps.Auth.Signup)
	authGroup.POST("/login", deps.Auth.Login)

	// Protected routes: API key + general rate limit
	protected := v1.Group("", deps.AuthMiddleware,
		RateLimitMiddleware(deps.Limiter, deps.RateLimitAPI, time.Minute),
	)

	// Users
	protected.GET("/users/@me", deps.Users.GetMe)
	protected.PATCH("/users/@me", deps.Users.UpdateMe)
	protected.GET("/users/@me/unread", deps.ReadStates.GetUnreadCounts)
	protected.GET("/users/@me/read-states", deps.ReadStates.GetReadStates)

	// Channels
	protected.POST("/channels", deps.Channels.CreateChannel)
	protected.GET("/channels", deps.Channels.ListChannels)
	protected.GET("/channels/:id", deps.Channels.GetChannel)
	protected.PATCH("/channels/:id", deps.Channels.RenameChannel)

	// Messages
	protected.POST("/channels/:id/messages", deps.Messages.PostMessage)
	protected.GET("/channels/:id/messages", deps.Messages.ListMessages)
	protected.GET("/messages/:id", deps.Messages.GetMessage)
	protected.GET("/messages/:id/replies", deps.Messages.ListReplies)
	protected.POST("/messages/:id/replies", deps.Messages.PostReply)

	// Read state
	protected.PUT("/channels/:id/ack", deps.ReadStates.Ack)
	protected.GET("/channels/:id/ack", deps.ReadStates.GetAck)
	protected.GET("/channels/:id/unread", deps.ReadStates.GetChannelUnread)

	if deps.StaticDir != "" {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:       ".",
			Filesystem: http.Dir(deps.StaticDir),
			HTML5:      true,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasPrefix(p, "/api/") || p == "/health" || p == "/metrics"
			},
		}))
	}
}
