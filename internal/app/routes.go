package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/landing/internal/middleware"
	"github.com/mx-space/landing/internal/modules/health"
	"github.com/mx-space/landing/internal/modules/subscriber"
	"github.com/mx-space/landing/internal/pkg/metrics"
	"github.com/mx-space/landing/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

func (a *App) registerRoutes(subs *subscriber.Handler) {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "landing",
		"site":    a.cfg.Site.Name,
		"version": "1.0.0",
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	var rdb *redis.Client
	if a.redis != nil {
		rdb = a.redis.Raw()
	}

	api := r.Group("/api")
	api.Use(middleware.RateLimit(rdb, a.cfg.RateLimit, time.Minute))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(a.startedAt)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	health.RegisterRoutes(api, health.Options{
		Store:      a.pingStore,
		Tasks:      a.sched,
		LaunchMode: a.cfg.Launch.Mode,
		Mail:       a.sender.Provider(),
	})

	subs.RegisterRoutes(api)
}
