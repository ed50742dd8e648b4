package router

import (
	"github.com/labstack/echo/v4"

	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/model"
)

// RegisterAdmin registers the user administration endpoints.  The whole
// group is gated on the Admin role claim; per-request rules such as
// self-deactivation are enforced in the handlers.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/users", a.ListUsers)
	g.PUT("/users/:id", a.UpdateUser)
	g.POST("/users/:id/toggle-active", a.ToggleActive)
}
