package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"LoneGuard/pkg/middleware"
	"LoneGuard/pkg/response"
)

// 开启监护会话
func (h *Handlers) StartSession(c *gin.Context) {
	workerID, ok := middleware.CallerUintID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	var req struct {
		StartedAt *time.Time `json:"started_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Fail(c, "invalid request", nil)
		return
	}

	session, err := h.sessions.Start(c.Request.Context(), workerID, req.StartedAt)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "session started", session)
}

// 结束会话
func (h *Handlers) FinishSession(c *gin.Context) {
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
		EndedAt *time.Time `json:"ended_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Fail(c, "invalid request", nil)
		return
	}

	session, err := h.sessions.Finish(c.Request.Context(), sessionID, workerID, req.EndedAt)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "session finished", session)
}

// 作废会话
func (h *Handlers) CancelSession(c *gin.Context) {
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

	session, err := h.sessions.Cancel(c.Request.Context(), sessionID, workerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "session cancelled", session)
}

// 查看会话
func (h *Handlers) GetSession(c *gin.Context) {
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

	session, err := h.sessions.Owned(c.Request.Context(), sessionID, workerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "session", session)
}
