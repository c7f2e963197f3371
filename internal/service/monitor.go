package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"LoneGuard/internal/models"
	"LoneGuard/pkg/jobqueue"
	"LoneGuard/pkg/logger"
	"LoneGuard/pkg/metrics"
)

const (
	defaultTimeoutDelay = 30 * time.Minute

	// 巡检宽限：fire time 过期这么久后仍未触发才算丢单
	sweepGrace = time.Minute
)

// MonitorService 维护"队列里挂着的超时任务"与"会话记录里存的凭证"一致。
// 队列和数据库是两个系统，这里用补偿动作而不是分布式事务。
type MonitorService struct {
	db     *gorm.DB
	queue  jobqueue.Queue
	alerts *AlertService
	delay  time.Duration
}

func NewMonitorService(db *gorm.DB, queue jobqueue.Queue, alerts *AlertService, delay time.Duration) *MonitorService {
	if delay <= 0 {
		delay = defaultTimeoutDelay
	}
	return &MonitorService{db: db, queue: queue, alerts: alerts, delay: delay}
}

// ScheduleTimeout 入队超时任务并把凭证写回会话。
// 入队失败：记日志后放行（阻塞开工比漏一条超时告警代价更高）。
// 凭证落库失败：补偿删除刚入队的任务，否则会出现一条无法被取消的任务。
func (m *MonitorService) ScheduleTimeout(ctx context.Context, session *models.WorkSession) {
	fireAt := time.Now().Add(m.delay)
	handle, err := m.queue.Enqueue(ctx, jobqueue.Payload{
		Kind:      jobqueue.KindSessionTimeout,
		SessionID: session.ID,
	}, fireAt)
	if err != nil {
		logger.Warn("timeout job enqueue failed, session proceeds without safety net",
			zap.Uint("session_id", session.ID), zap.Error(err))
		return
	}

	err = m.db.WithContext(ctx).Model(session).Updates(map[string]interface{}{
		"timeout_job_id": handle,
		"timeout_job_at": fireAt,
	}).Error
	if err != nil {
		logger.Warn("timeout job handle persist failed, compensating",
			zap.Uint("session_id", session.ID), zap.String("handle", handle), zap.Error(err))
		if _, cerr := m.queue.Cancel(ctx, handle); cerr != nil {
			logger.Error("compensating job cancel failed, orphan timeout job remains",
				zap.Uint("session_id", session.ID), zap.String("handle", handle), zap.Error(cerr))
		}
		return
	}
	session.TimeoutJobID = &handle
	session.TimeoutJobAt = &fireAt
}

// CancelTimeout 取消挂起的超时任务。凭证为空直接返回；队列里找不到
// （已触发或已删）同样视为成功。凭证与 fire time 无论如何都会清掉，
// 任何失败只记日志，绝不阻塞会话状态流转。
func (m *MonitorService) CancelTimeout(ctx context.Context, session *models.WorkSession) {
	if session.TimeoutJobID == nil {
		return
	}
	handle := *session.TimeoutJobID

	job, err := m.queue.Lookup(ctx, handle)
	if err != nil {
		logger.Warn("timeout job lookup failed",
			zap.Uint("session_id", session.ID), zap.String("handle", handle), zap.Error(err))
	}
	if job != nil {
		if _, err := m.queue.Cancel(ctx, handle); err != nil {
			logger.Warn("timeout job cancel failed",
				zap.Uint("session_id", session.ID), zap.String("handle", handle), zap.Error(err))
		}
	}

	if err := m.clearHandle(ctx, session); err != nil {
		logger.Warn("timeout job handle clear failed",
			zap.Uint("session_id", session.ID), zap.Error(err))
	}
}

// Refresh 每次上报后顺延超时窗口
func (m *MonitorService) Refresh(ctx context.Context, session *models.WorkSession) {
	m.CancelTimeout(ctx, session)
	m.ScheduleTimeout(ctx, session)
}

// HandleTimeout 超时任务触发：会话仍在进行中就产生 timeout 告警
func (m *MonitorService) HandleTimeout(ctx context.Context, job jobqueue.Job) {
	var session models.WorkSession
	err := m.db.WithContext(ctx).First(&session, job.Payload.SessionID).Error
	if err != nil {
		logger.Warn("timeout job fired for unknown session",
			zap.Uint("session_id", job.Payload.SessionID), zap.Error(err))
		return
	}

	// 任务已出队，凭证不再代表挂起任务
	if session.TimeoutJobID != nil {
		if err := m.clearHandle(ctx, &session); err != nil {
			logger.Warn("timeout job handle clear failed",
				zap.Uint("session_id", session.ID), zap.Error(err))
		}
	}

	if !session.InProgress() {
		return
	}

	metrics.TimeoutJobsFired.Inc()
	if _, err := m.alerts.Create(ctx, CreateAlertInput{
		SessionID: session.ID,
		Type:      models.AlertTimeout,
		Severity:  models.SeverityHigh,
	}); err != nil {
		logger.Error("timeout alert creation failed",
			zap.Uint("session_id", session.ID), zap.Error(err))
	}
}

// Sweep 兜底巡检：fire time 已过却没有触发（队列丢单）的在途会话，
// 走同一条超时告警路径补发。
func (m *MonitorService) Sweep(ctx context.Context) {
	var sessions []models.WorkSession
	err := m.db.WithContext(ctx).
		Where("status = ? AND timeout_job_at IS NOT NULL AND timeout_job_at < ?",
			models.SessionInProgress, time.Now().Add(-sweepGrace)).
		Find(&sessions).Error
	if err != nil {
		logger.Warn("monitor sweep query failed", zap.Error(err))
		return
	}

	for i := range sessions {
		session := &sessions[i]
		if session.TimeoutJobID != nil {
			job, err := m.queue.Lookup(ctx, *session.TimeoutJobID)
			if err != nil {
				logger.Warn("monitor sweep lookup failed",
					zap.Uint("session_id", session.ID), zap.Error(err))
				continue
			}
			if job != nil {
				// 任务还挂着，交给分发器
				continue
			}
		}
		logger.Info("monitor sweep recovering missed timeout",
			zap.Uint("session_id", session.ID))
		m.HandleTimeout(ctx, jobqueue.Job{
			Payload: jobqueue.Payload{Kind: jobqueue.KindSessionTimeout, SessionID: session.ID},
		})
	}
}

func (m *MonitorService) clearHandle(ctx context.Context, session *models.WorkSession) error {
	err := m.db.WithContext(ctx).Model(session).Updates(map[string]interface{}{
		"timeout_job_id": nil,
		"timeout_job_at": nil,
	}).Error
	if err != nil {
		return err
	}
	session.TimeoutJobID = nil
	session.TimeoutJobAt = nil
	return nil
}
