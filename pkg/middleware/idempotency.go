package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"LoneGuard/pkg/cache"
)

// Idempotency 拒绝窗口内携带相同 Idempotency-Key 的重复写请求。
// 移动端弱网下会盲重试，上报和呼救端点都挂这个中间件；
// 不带 key 的请求放行，由业务层去重兜底。
func Idempotency(store cache.Cache, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if key == "" {
			c.Next()
			return
		}

		caller, _ := CallerID(c)
		cacheKey := "idem:" + caller + ":" + c.FullPath() + ":" + key
		if _, seen := store.Get(c.Request.Context(), cacheKey); seen {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		_ = store.Set(c.Request.Context(), cacheKey, true, ttl)
		c.Next()
	}
}
