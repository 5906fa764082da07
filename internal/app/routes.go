package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/microblog/internal/config"
	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/middleware"
	"github.com/simp-lee/microblog/internal/pkg"
)

const healthCheckTimeout = time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules  []Module
	Resolver middleware.PrincipalResolver
	DB       *gorm.DB
	// Checks are reported by /health next to the database, keyed by component.
	Checks map[string]HealthCheck
}

// RegisterRoutes registers all application routes on the given gin.Engine.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if deps.Resolver == nil {
		return errors.New("principal resolver is required")
	}

	r.GET("/health", healthHandler(deps.DB, deps.Checks))

	api := r.Group("/api/v1")
	authed := api.Group("", middleware.Auth(deps.Resolver))

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api, authed)
	}

	r.NoRoute(noRouteHandler())
	return nil
}

// healthHandler pings the database and every extra check. Any failure turns
// the response into a 503 with status "degraded".
func healthHandler(db *gorm.DB, checks map[string]HealthCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		components := gin.H{}

		report := func(name string, err error) {
			if err == nil {
				components[name] = "ok"
				return
			}
			components[name] = "error"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		report("database", config.PingDatabase(ctx, db))
		for _, name := range names {
			report(name, checks[name](ctx))
		}

		c.JSON(code, gin.H{
			"status":     status,
			"components": components,
		})
	}
}

func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pkg.Error(c, domain.NewAppError(domain.CodeNotFound, "resource not found", nil))
	}
}
