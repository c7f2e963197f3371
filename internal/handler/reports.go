package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LoneGuard/internal/service"
	"LoneGuard/pkg/middleware"
	"LoneGuard/pkg/response"
)

// 心跳/打卡上报，返回风险等级与建议上报间隔
func (h *Handlers) ReportSafetyLog(c *gin.Context) {
	workerID, ok := middleware.CallerUintID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	sessionID, ok := paramUint(c, "id")
	if !ok {
		response.Fail(c, "invalid session id", nil)
		return
	}

	var req service.ReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}

	result, err := h.reports.Ingest(c.Request.Context(), sessionID, workerID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "report accepted", result)
}

// SOS 求助
func (h *Handlers) RequestSos(c *gin.Context) {
	workerID, ok := middleware.CallerUintID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	sessionID, ok := paramUint(c, "id")
	if !ok {
		response.Fail(c, "invalid session id", nil)
		return
	}

	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Fail(c, "invalid request", nil)
		return
	}

	result, err := h.reports.Sos(c.Request.Context(), sessionID, workerID, req.Lat, req.Lng)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "sos received", result)
}

// 会话上报历史
func (h *Handlers) ListSessionLogs(c *gin.Context) {
	workerID, ok := middleware.CallerUintID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	sessionID, ok := paramUint(c, "id")
	if !ok {
		response.Fail(c, "invalid session id", nil)
		return
	}

	logs, err := h.reports.ListLogs(c.Request.Context(), sessionID, workerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "safety logs", logs)
}
