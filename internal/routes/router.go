// Package routes wires the dashboard handlers onto a gin engine.
package routes

import (
	"hostwatch/internal/config"
	"hostwatch/internal/controllers"
	"hostwatch/internal/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the local-only middleware chain in front
// of every route.
func NewRouter(api *controllers.API, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	// Client IPs come from the socket only; forwarded headers are ignored.
	_ = r.SetTrustedProxies(nil)

	whitelist := middleware.NewIPWhitelist(cfg.AllowedIPs)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.IPWhitelistMiddleware(whitelist, api.Security))
	r.Use(middleware.RateLimitMiddleware(limiter, api.Security))

	RegisterMetricsRoutes(r, api)
	RegisterHistoryRoutes(r, api)
	RegisterProcessRoutes(r, api)
	RegisterReportRoutes(r, api)
	RegisterWebSocketRoutes(r, api)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}
