// Package http holds the pieces main assembles into the HTTP server: the
// application dependencies and the contract each domain module implements.
package http

import (
	"context"

	"estate_analyzer/platform/config"
	"estate_analyzer/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.RateLimitConfig
}

// HealthChecker backs GET /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is built by main and handed to router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is nil when there is no external dependency to probe.
	Health  HealthChecker
	Modules []Module
}

// Module is a domain area that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(rc *RouterContext)
}

// RouterContext is what a module may mount routes on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1, already rate limited.
	V1 *gin.RouterGroup
}
