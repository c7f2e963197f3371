package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LoneGuard/pkg/middleware"
	"LoneGuard/pkg/response"
)

// 组织告警统计
func (h *Handlers) OrganizationAlertSummary(c *gin.Context) {
	orgID, ok := paramUint(c, "id")
	if !ok {
		response.Fail(c, "invalid organization id", nil)
		return
	}

	summary, err := h.alerts.OrganizationSummary(c.Request.Context(), orgID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "alert summary", summary)
}

// 处置告警
func (h *Handlers) ResolveAlert(c *gin.Context) {
	handlerID, ok := middleware.CallerUintID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	alertID, ok := paramUint(c, "id")
	if !ok {
		response.Fail(c, "invalid alert id", nil)
		return
	}

	alert, err := h.alerts.Resolve(c.Request.Context(), alertID, handlerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "alert resolved", alert)
}
