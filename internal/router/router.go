package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/club-membership/internal/config"
	"github.com/iliyamo/club-membership/internal/handler"
	"github.com/iliyamo/club-membership/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterPublic registers the guest event browse endpoints. The listing is
// served through the Redis response cache when one is configured.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, cache config.CacheConfig, rdb *redis.Client) {
	e.GET("/v1/events", ev.ListPublic, middleware.NewRedisCache(cache, rdb))
	e.GET("/v1/events/:id", ev.Get)
}
