// Package router assembles the gin engine and its middleware stack.
package router

import (
	"net/http"
	"time"

	"lm-bridge/internal/middleware"
	"lm-bridge/internal/proxy"
	"lm-bridge/internal/types"
	"lm-bridge/internal/version"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine. Everything except /health falls through
// to the proxy handler, so the full upstream API surface is reachable
// without route-by-route registration.
func NewRouter(
	proxyServer *proxy.ProxyServer,
	configManager types.ConfigManager,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Register global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(middleware.RateLimiter(configManager.GetPerformanceConfig()))

	startTime := time.Now()
	router.GET("/health", healthHandler(startTime, configManager.GetUpstreamConfig().BaseURL))

	router.NoRoute(proxyServer.HandleProxy)

	return router
}

// healthHandler reports liveness without touching the upstream.
func healthHandler(startTime time.Time, upstreamURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"version":  version.Version,
			"uptime":   time.Since(startTime).Round(time.Second).String(),
			"upstream": upstreamURL,
		})
	}
}
