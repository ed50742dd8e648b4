package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/middleware"
)

// RegisterAuth registers the authentication routes.  Unauthenticated
// operations live under /v1/auth behind the rate limiter; /v1/me and
// /v1/logout require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	// The limiter only guards the credential-facing endpoints; there is
	// no point throttling authenticated traffic by IP.
	g := e.Group("/v1/auth", middleware.RateLimit(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}
