package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"LoneGuard/internal/service"
)

type Handlers struct {
	db       *gorm.DB
	sessions *service.SessionService
	reports  *service.ReportService
	alerts   *service.AlertService
}

func New(db *gorm.DB, sessions *service.SessionService, reports *service.ReportService, alerts *service.AlertService) *Handlers {
	return &Handlers{db: db, sessions: sessions, reports: reports, alerts: alerts}
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
