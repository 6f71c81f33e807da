package main

import (
	"database/sql"
	"net/http"
	"time"

	"cms-portal/internal/httpapi"
	"cms-portal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// deps are the process-level collaborators the infrastructure routes report on.
// db and rdb are nil when the optional backends are off.
type deps struct {
	reg       *prometheus.Registry
	db        *sql.DB
	rdb       *redis.Client
	staticDir string
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, d deps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		ctx := c.Request.Context()
		status := gin.H{"status": "ok"}
		if d.db != nil {
			if err := utils.HealthCheck(ctx, d.db, 2*time.Second); err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
				return
			}
			status["postgres"] = "ok"
		}
		if d.rdb != nil {
			// The cache is optional; a Redis outage degrades, it does not fail the probe.
			if err := d.rdb.Ping(ctx).Err(); err != nil {
				status["redis"] = err.Error()
			} else {
				status["redis"] = "ok"
			}
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.reg, promhttp.HandlerOpts{})))

	if d.staticDir != "" {
		r.Static("/static", d.staticDir)
	}

	h.Routes(r)
}
