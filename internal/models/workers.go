package models

import (
	"time"

	"LoneGuard/pkg/geo"
)

// Worker 受监护的作业人员
type Worker struct {
	ID             uint `gorm:"primaryKey"`
	OrganizationID uint `gorm:"index"`
	DisplayName    string
	Phone          string
	// 安全区：配置后离区上报会提高风险分
	HomePoint   *geo.Point `gorm:"type:text"`
	HomeRadiusM float64    `gorm:"default:50"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
