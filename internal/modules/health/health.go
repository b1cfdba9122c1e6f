package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/landing/internal/pkg/response"
	"github.com/mx-space/landing/internal/pkg/schedule"
)

const pingTimeout = 2 * time.Second

// Pinger checks a backing service.
type Pinger func(ctx context.Context) error

// Tasks is the read side of the scheduler.
type Tasks interface {
	List() []schedule.ListItem
	History() []schedule.ListItem
	Pending() int
}

type Options struct {
	Store      Pinger
	Tasks      Tasks
	LaunchMode string
	Mail       string
}

func RegisterRoutes(rg *gin.RouterGroup, opts Options) {
	rg.GET("/health", func(c *gin.Context) {
		storeOK := true
		if opts.Store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
			storeOK = opts.Store(ctx) == nil
			cancel()
		}

		status := "ok"
		code := http.StatusOK
		if !storeOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":     status,
			"database":   storeOK,
			"launchMode": opts.LaunchMode,
			"mail":       opts.Mail,
		}
		if opts.Tasks != nil {
			body["pendingTasks"] = opts.Tasks.Pending()
		}
		c.JSON(code, body)
	})

	rg.GET("/health/tasks", func(c *gin.Context) {
		if opts.Tasks == nil {
			response.NotFoundMsg(c, "scheduler not available")
			return
		}
		response.OK(c, gin.H{
			"pending": opts.Tasks.List(),
			"history": opts.Tasks.History(),
		})
	})
}
