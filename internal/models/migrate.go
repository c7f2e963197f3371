package models

import "gorm.io/gorm"

// Migrate 建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Worker{},
		&WorkSession{},
		&SafetyLog{},
		&RiskAssessment{},
		&Alert{},
	)
}
