package models

import (
	"time"

	"LoneGuard/pkg/geo"
)

// 上报类型
const (
	TriggerHeartbeat = "heartbeat"
	TriggerSos       = "sos"
	TriggerCheckIn   = "check_in"
)

// SafetyLog 一次位置/电量/触发上报，落库后不再修改
type SafetyLog struct {
	ID           uint      `gorm:"primaryKey"`
	SessionID    uint      `gorm:"not null;index:idx_safety_logs_session_logged"`
	LoggedAt     time.Time `gorm:"not null;index:idx_safety_logs_session_logged"`
	BatteryLevel int       // 0-100
	TriggerType  string    `gorm:"size:16;not null"`
	GPSAccuracyM *float64
	// 经纬度成对出现时才有值
	Point            *geo.Point `gorm:"type:text;index"`
	WeatherTemp      *float64
	WeatherCondition *string `gorm:"size:64"`
	CreatedAt        time.Time
}

func ValidTrigger(t string) bool {
	switch t {
	case TriggerHeartbeat, TriggerSos, TriggerCheckIn:
		return true
	}
	return false
}
