package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 风险等级
const (
	RiskSafe    = "safe"
	RiskCaution = "caution"
	RiskDanger  = "danger"
)

// ReasonCode 风险原因码，封闭枚举
type ReasonCode string

const (
	ReasonSosTrigger      ReasonCode = "sos_trigger"
	ReasonOutsideHome     ReasonCode = "outside_home"
	ReasonLongInactive    ReasonCode = "long_inactive"
	ReasonShortInactive   ReasonCode = "short_inactive"
	ReasonHighTemperature ReasonCode = "high_temperature"
	ReasonModerateHeat    ReasonCode = "moderate_heat"
	ReasonLowTemperature  ReasonCode = "low_temperature"
	ReasonLowBattery      ReasonCode = "low_battery"
	ReasonBatteryCaution  ReasonCode = "battery_caution"
	ReasonPoorGPSAccuracy ReasonCode = "poor_gps_accuracy"
)

// 因子名
const (
	FactorSos         = "sos"
	FactorLocation    = "location"
	FactorMovement    = "movement"
	FactorTemperature = "temperature"
	FactorBattery     = "battery"
	FactorGPSAccuracy = "gps_accuracy"
)

// RiskDetails 评估明细，JSON 文本落库
type RiskDetails struct {
	Reasons []ReasonCode   `json:"reasons"`
	Factors map[string]int `json:"factors"`
}

func (d RiskDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *RiskDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("cannot scan %T into RiskDetails", src)
}

// RiskAssessment 每条 SafetyLog 恰好一条评估记录
type RiskAssessment struct {
	ID          uint        `gorm:"primaryKey"`
	SafetyLogID uint        `gorm:"not null;uniqueIndex"`
	Score       int         `gorm:"not null"`
	Level       string      `gorm:"size:16;not null"`
	Details     RiskDetails `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
