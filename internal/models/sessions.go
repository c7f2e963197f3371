package models

import "time"

// 会话状态
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionCancelled  = "cancelled"
)

// WorkSession 一段受监护的作业时间
type WorkSession struct {
	ID             uint   `gorm:"primaryKey"`
	WorkerID       uint   `gorm:"not null;index"`
	OrganizationID uint   `gorm:"not null;index"`
	Status         string `gorm:"size:32;not null;default:'in_progress'"`
	StartedAt      time.Time
	EndedAt        *time.Time // in_progress 时为 nil
	// 待触发的超时任务凭证，任务在队列中挂起时非空
	TimeoutJobID *string `gorm:"size:64;uniqueIndex"`
	TimeoutJobAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *WorkSession) InProgress() bool { return s.Status == SessionInProgress }
