package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-membership/internal/handler"
	"github.com/iliyamo/club-membership/internal/middleware"
	"github.com/iliyamo/club-membership/internal/model"
)

// RegisterAdmin registers admin endpoints under /v1/admin. All routes
// require a valid JWT and the ADMIN or SUPER_ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, ev *handler.EventHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin),
	)

	// ---- Events ----
	g.GET("/events", ev.ListAll)
	g.POST("/events", ev.Create)
	g.PUT("/events/:id", ev.Update)
	g.DELETE("/events/:id", ev.Delete)

	// ---- RSVPs ----
	g.GET("/rsvps", a.ListEventRSVPs)

	// ---- Users ----
	g.GET("/users", a.ListUsers)
	g.GET("/users/:uid", a.GetUser)
	g.PUT("/users/:uid/role", a.UpdateRole)
	g.POST("/users/:uid/tokens", a.CreditTokens)
}
