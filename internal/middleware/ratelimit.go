package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/landing/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const defaultRateLimitWindow = time.Minute

// RateLimit returns a fixed-window per-IP limiter backed by Redis INCR.
// A nil client or max <= 0 disables it. Redis errors let the request through.
func RateLimit(rdb *redis.Client, max int, window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	return func(c *gin.Context) {
		if rdb == nil || max <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		windowKey := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("landing:rate_limit:%s:%d", ip, windowKey)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		if count == 1 {
			rdb.PExpire(ctx, key, window+time.Second)
		}

		if count > int64(max) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
