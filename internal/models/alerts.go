package models

import "time"

// 告警类型
const (
	AlertTimeout    = "timeout"
	AlertSos        = "sos"
	AlertRiskHigh   = "risk_high"
	AlertRiskMedium = "risk_medium"
	AlertBatteryLow = "battery_low"
)

// 告警级别
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// 告警状态
const (
	AlertOpen       = "open"
	AlertInProgress = "in_progress"
	AlertResolved   = "resolved"
)

// Alert 一条可处置的告警
type Alert struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID uint   `gorm:"not null;index"`
	AlertType string `gorm:"size:32;not null;index"`
	Severity  string `gorm:"size:16;not null"`
	Status    string `gorm:"size:16;not null;default:'open';index"`
	// 证据快照，可空；日志删除时置空不删告警
	SafetyLogID *uint
	// resolved 时 HandledByID 与 ResolvedAt 同时置位
	HandledByID *uint
	ResolvedAt  *time.Time
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// AlertSummary 组织维度的告警统计
type AlertSummary struct {
	Unresolved int64 `json:"unresolved"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	UrgentOpen int64 `json:"urgent_open"`

	Breakdown AlertBreakdown `json:"breakdown"`
}

type AlertBreakdown struct {
	SosOpen            int64 `json:"sos_open"`
	CriticalOpenNonSos int64 `json:"critical_open_non_sos"`
}
