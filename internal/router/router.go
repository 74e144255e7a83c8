package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/animecon/program-sync/internal/config"
	"github.com/animecon/program-sync/internal/handler"
	"github.com/animecon/program-sync/internal/middleware"
)

// Register wires every route of the service onto the provided Echo
// instance.  rdb may be nil; the cache and rate-limit middleware then
// degrade to pass-through.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client,
	a *handler.AuthHandler, p *handler.ProgramHandler, adm *handler.AdminHandler) {

	// Liveness probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Auth endpoints.  Login sits behind the Redis token bucket so the
	// single admin account cannot be brute-forced.
	auth := e.Group("/v1/auth")
	auth.POST("/login", a.Login, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)

	// Programme reads are public within the admin network; responses are
	// served from the Redis response cache when warm.
	read := e.Group("/v1", middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	read.GET("/program", p.GetProgram)
	read.GET("/program/activities", p.GetActivities)
	read.GET("/program/activities/:id", p.GetActivity)
	read.GET("/program/locations", p.GetLocations)
	read.GET("/program/timeslots", p.GetTimeslots)
	read.GET("/changes", p.GetChanges)
	read.GET("/snapshots", p.GetSnapshots)

	// Admin operations require a valid access token with the ADMIN role.
	adminGroup := e.Group("/v1/admin")
	adminGroup.Use(middleware.JWTAuth(cfg.JWTSecret))
	adminGroup.Use(middleware.RequireRole("ADMIN"))
	adminGroup.POST("/import", adm.TriggerImport)
	adminGroup.POST("/logout-all", a.LogoutAll)
}
