package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"LoneGuard/pkg/cache"
	"LoneGuard/pkg/middleware"
)

// Register 挂载路由。认证在上游网关完成，这里只校验身份头的存在。
// idemStore 为 nil 时退回进程内缓存，多副本部署应传 Redis 实现。
func (h *Handlers) Register(r *gin.RouterGroup, rateLimit string, idemStore cache.Cache) {
	r.GET("/health", h.HealthCheck)

	auth := r.Group("", middleware.CallerIdentity())

	auth.POST("/sessions", h.StartSession)
	auth.GET("/sessions/:id", h.GetSession)
	auth.POST("/sessions/:id/finish", h.FinishSession)
	auth.POST("/sessions/:id/cancel", h.CancelSession)
	auth.GET("/sessions/:id/logs", h.ListSessionLogs)

	// 上报端点单独限流 + 幂等拦截，客户端按建议间隔轮询、弱网重试带 Idempotency-Key
	if idemStore == nil {
		idemStore = cache.NewGoCache(cache.LocalConfig{
			DefaultExpiration: 10 * time.Minute,
			CleanupInterval:   20 * time.Minute,
		})
	}
	limited := auth.Group("",
		middleware.RateLimiter(rateLimit),
		middleware.Idempotency(idemStore, 10*time.Minute))
	limited.POST("/sessions/:id/reports", h.ReportSafetyLog)
	limited.POST("/sessions/:id/sos", h.RequestSos)

	auth.GET("/organizations/:id/alerts/summary", h.OrganizationAlertSummary)
	auth.POST("/alerts/:id/resolve", h.ResolveAlert)
}
