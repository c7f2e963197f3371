package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"LoneGuard/internal/models"
	"LoneGuard/pkg/errors"
	"LoneGuard/pkg/logger"
	"LoneGuard/pkg/metrics"
)

// 等级门槛与建议上报间隔
const (
	dangerScoreThreshold  = 80
	cautionScoreThreshold = 40

	pollDanger  = 15 * time.Second
	pollCaution = 45 * time.Second
	pollSafe    = 60 * time.Second
)

// AssessResult 返回给上报端的评估结论
type AssessResult struct {
	Level        string              `json:"level"`
	Score        int                 `json:"score"`
	Reasons      []models.ReasonCode `json:"reasons"`
	PollInterval time.Duration       `json:"poll_interval"`
}

// AssessmentService 把因子分落成持久化评估并触发告警
type AssessmentService struct {
	db     *gorm.DB
	alerts *AlertService
}

func NewAssessmentService(db *gorm.DB, alerts *AlertService) *AssessmentService {
	return &AssessmentService{db: db, alerts: alerts}
}

// Assess 评估一条日志。评估落库失败整个上报算失败；
// 告警创建失败只记日志，不拖垮上报。
func (s *AssessmentService) Assess(ctx context.Context, log *models.SafetyLog) (*AssessResult, error) {
	rc, err := s.buildContext(ctx, log)
	if err != nil {
		return nil, err
	}
	result := ScoreSafetyLog(rc)

	level := models.RiskSafe
	switch {
	case hasReason(result.Reasons, models.ReasonSosTrigger) || result.Score >= dangerScoreThreshold:
		level = models.RiskDanger
	case result.Score >= cautionScoreThreshold:
		level = models.RiskCaution
	}

	if err := s.upsert(ctx, log.ID, result, level); err != nil {
		return nil, err
	}
	metrics.RiskLevelTotal.WithLabelValues(level).Inc()

	switch level {
	case models.RiskDanger:
		s.escalate(ctx, log, models.AlertRiskHigh, models.SeverityHigh)
	case models.RiskCaution:
		s.escalate(ctx, log, models.AlertRiskMedium, models.SeverityMedium)
	}

	return &AssessResult{
		Level:        level,
		Score:        result.Score,
		Reasons:      result.Reasons,
		PollInterval: pollFor(level),
	}, nil
}

func (s *AssessmentService) buildContext(ctx context.Context, log *models.SafetyLog) (RiskContext, error) {
	var session models.WorkSession
	if err := s.db.WithContext(ctx).First(&session, log.SessionID).Error; err != nil {
		return RiskContext{}, errors.Wrap(err, "load session for assessment")
	}

	var worker models.Worker
	if err := s.db.WithContext(ctx).First(&worker, session.WorkerID).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return RiskContext{}, errors.Wrap(err, "load worker for assessment")
		}
		// worker 档案缺失时按无安全区评估
	}

	var recent []models.SafetyLog
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND logged_at >= ?", log.SessionID, log.LoggedAt.Add(-inactiveLongWindow)).
		Order("logged_at ASC").
		Find(&recent).Error
	if err != nil {
		return RiskContext{}, errors.Wrap(err, "load recent logs for assessment")
	}

	return RiskContext{Log: log, Worker: &worker, Recent: recent, Now: log.LoggedAt}, nil
}

// upsert 以 safety_log_id 为幂等键，重评不产生第二行
func (s *AssessmentService) upsert(ctx context.Context, logID uint, result RiskResult, level string) error {
	var assessment models.RiskAssessment
	err := s.db.WithContext(ctx).
		Where("safety_log_id = ?", logID).
		First(&assessment).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return errors.Wrap(err, "load assessment")
	}

	assessment.SafetyLogID = logID
	assessment.Score = result.Score
	assessment.Level = level
	assessment.Details = models.RiskDetails{Reasons: result.Reasons, Factors: result.Factors}
	if err := s.db.WithContext(ctx).Save(&assessment).Error; err != nil {
		return errors.Wrap(err, "persist assessment")
	}
	return nil
}

func (s *AssessmentService) escalate(ctx context.Context, log *models.SafetyLog, alertType, severity string) {
	if _, err := s.alerts.Create(ctx, CreateAlertInput{
		SessionID:   log.SessionID,
		Type:        alertType,
		Severity:    severity,
		SafetyLogID: &log.ID,
	}); err != nil {
		logger.Warn("risk escalation alert failed",
			zap.Uint("session_id", log.SessionID), zap.String("type", alertType), zap.Error(err))
	}
}

func pollFor(level string) time.Duration {
	switch level {
	case models.RiskDanger:
		return pollDanger
	case models.RiskCaution:
		return pollCaution
	}
	return pollSafe
}

func hasReason(reasons []models.ReasonCode, code models.ReasonCode) bool {
	for _, r := range reasons {
		if r == code {
			return true
		}
	}
	return false
}
