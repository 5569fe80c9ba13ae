package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/club-membership/internal/config"
	"github.com/iliyamo/club-membership/internal/handler"
	"github.com/iliyamo/club-membership/internal/middleware"
	"github.com/iliyamo/club-membership/internal/model"
)

// RegisterMember registers member-scoped endpoints under /v1/member. Any
// verified role may call them. RSVP creation is rate limited per user.
func RegisterMember(e *echo.Echo, h *handler.MemberHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1/member",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMember, model.RoleAdmin, model.RoleSuperAdmin),
	)
	g.POST("/profile", h.EnsureProfile)
	g.POST("/rsvps", h.CreateRSVP, middleware.NewTokenBucket(rl, rdb))
	g.GET("/rsvps", h.ListRSVPs)
	g.GET("/tokens", h.Tokens)
}
