package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"LoneGuard/internal/models"
	"LoneGuard/pkg/errors"
	"LoneGuard/pkg/metrics"
)

// 会话冲突细分码
const (
	CodeAlreadyActive  = errors.CodeConflict + 1
	CodeNotFinishable  = errors.CodeConflict + 2
	CodeNotCancellable = errors.CodeConflict + 3
)

// SessionService 作业会话的生命周期。
// 单活会话约束靠按 worker 分段的互斥 + 查后插实现，不依赖数据库约束。
type SessionService struct {
	db      *gorm.DB
	monitor *MonitorService
	locks   sync.Map // worker id -> *sync.Mutex
}

func NewSessionService(db *gorm.DB, monitor *MonitorService) *SessionService {
	return &SessionService{db: db, monitor: monitor}
}

func (s *SessionService) lockFor(workerID uint) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(workerID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Start 开启监护会话。查重与插入在同一把 worker 锁内完成，
// 并发的两次开工请求不会同时通过查重。
func (s *SessionService) Start(ctx context.Context, workerID uint, startedAt *time.Time) (*models.WorkSession, error) {
	var worker models.Worker
	if err := s.db.WithContext(ctx).First(&worker, workerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("worker not found")
		}
		return nil, errors.Wrap(err, "load worker")
	}

	mu := s.lockFor(workerID)
	mu.Lock()
	defer mu.Unlock()

	var active int64
	err := s.db.WithContext(ctx).Model(&models.WorkSession{}).
		Where("worker_id = ? AND status = ?", workerID, models.SessionInProgress).
		Count(&active).Error
	if err != nil {
		return nil, errors.Wrap(err, "check active session")
	}
	if active > 0 {
		return nil, errors.WithCode(CodeAlreadyActive, "worker already has an active session")
	}

	start := time.Now()
	if startedAt != nil {
		start = *startedAt
	}
	session := &models.WorkSession{
		WorkerID:       workerID,
		OrganizationID: worker.OrganizationID,
		Status:         models.SessionInProgress,
		StartedAt:      start,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	metrics.SessionsActive.Inc()

	s.monitor.ScheduleTimeout(ctx, session)
	return session, nil
}

// Finish 结束会话：先撤掉超时任务，再落 completed
func (s *SessionService) Finish(ctx context.Context, sessionID, workerID uint, endedAt *time.Time) (*models.WorkSession, error) {
	session, err := s.Owned(ctx, sessionID, workerID)
	if err != nil {
		return nil, err
	}
	if !session.InProgress() {
		return nil, errors.WithCode(CodeNotFinishable, "session is not in progress")
	}
	return s.close(ctx, session, models.SessionCompleted, endedAt)
}

// Cancel 作废会话，要求当前仍在进行中
func (s *SessionService) Cancel(ctx context.Context, sessionID, workerID uint) (*models.WorkSession, error) {
	session, err := s.Owned(ctx, sessionID, workerID)
	if err != nil {
		return nil, err
	}
	if !session.InProgress() {
		return nil, errors.WithCode(CodeNotCancellable, "session is not in progress")
	}
	return s.close(ctx, session, models.SessionCancelled, nil)
}

func (s *SessionService) close(ctx context.Context, session *models.WorkSession, status string, endedAt *time.Time) (*models.WorkSession, error) {
	s.monitor.CancelTimeout(ctx, session)

	end := time.Now()
	if endedAt != nil {
		end = *endedAt
	}
	err := s.db.WithContext(ctx).Model(session).Updates(map[string]interface{}{
		"status":   status,
		"ended_at": end,
	}).Error
	if err != nil {
		return nil, errors.Wrap(err, "close session")
	}
	session.Status = status
	session.EndedAt = &end
	metrics.SessionsActive.Dec()
	return session, nil
}

// Owned 按 (id, worker) 取会话。不存在与不属于调用方统一返回 not found，
// 避免向调用方泄露他人会话是否存在。
func (s *SessionService) Owned(ctx context.Context, sessionID, workerID uint) (*models.WorkSession, error) {
	var session models.WorkSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND worker_id = ?", sessionID, workerID).
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("session not found")
		}
		return nil, errors.Wrap(err, "load session")
	}
	return &session, nil
}
