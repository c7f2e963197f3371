package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const callerIDKey = "caller_worker_id"

// CallerIdentity 从上游认证层注入的头里取调用方身份。
// 鉴权本身在网关完成，这里只负责透传 worker id。
func CallerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Worker-ID")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
			return
		}
		c.Set(callerIDKey, id)
		c.Next()
	}
}

// CallerID 返回当前请求的调用方 worker id
func CallerID(c *gin.Context) (string, bool) {
	v, ok := c.Get(callerIDKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// CallerUintID 数字形式的调用方 id
func CallerUintID(c *gin.Context) (uint, bool) {
	s, ok := CallerID(c)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
