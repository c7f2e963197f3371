package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiter 按调用方限流。rate 形如 "120-M"、"10-S"。
// 已认证请求以 worker id 为键，否则退回客户端 IP。
func RateLimiter(rate string) gin.HandlerFunc {
	formatted, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		formatted = limiter.Rate{Period: time.Minute, Limit: 120}
	}
	instance := limiter.New(memory.NewStore(), formatted)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if workerID, ok := CallerID(c); ok {
			key = workerID
		}

		lctx, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			// 限流器故障时放行
			c.Next()
			return
		}
		if lctx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
