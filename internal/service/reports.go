package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"LoneGuard/internal/models"
	"LoneGuard/internal/weather"
	"LoneGuard/pkg/errors"
	"LoneGuard/pkg/geo"
	"LoneGuard/pkg/metrics"
)

// ReportInput 一次安全上报
type ReportInput struct {
	TriggerType  string     `json:"trigger_type"`
	BatteryLevel int        `json:"battery_level"`
	GPSAccuracyM *float64   `json:"gps_accuracy_m"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
	LoggedAt     *time.Time `json:"logged_at"`
}

// ReportResult 上报的处理结论，poll 间隔是给客户端的建议值
type ReportResult struct {
	Log         *models.SafetyLog   `json:"log"`
	Level       string              `json:"level"`
	Score       int                 `json:"score"`
	Reasons     []models.ReasonCode `json:"reasons"`
	PollSeconds int                 `json:"poll_seconds"`
}

// ReportService 上报落库 → 风险评估 → 顺延超时任务
type ReportService struct {
	db         *gorm.DB
	weather    *weather.Client
	assessment *AssessmentService
	sessions   *SessionService
	monitor    *MonitorService
}

func NewReportService(db *gorm.DB, wx *weather.Client, assessment *AssessmentService, sessions *SessionService, monitor *MonitorService) *ReportService {
	return &ReportService{db: db, weather: wx, assessment: assessment, sessions: sessions, monitor: monitor}
}

// Ingest 处理一次上报。天气查询是尽力而为，拿不到就不带天气评估；
// 评估失败则整个上报失败，客户端重试。
func (r *ReportService) Ingest(ctx context.Context, sessionID, workerID uint, in ReportInput) (*ReportResult, error) {
	session, err := r.sessions.Owned(ctx, sessionID, workerID)
	if err != nil {
		return nil, err
	}
	if !session.InProgress() {
		return nil, errors.Conflict("session is not in progress")
	}

	log, err := r.buildLog(sessionID, in)
	if err != nil {
		return nil, err
	}

	if log.Point != nil {
		if obs, ok := r.weather.Fetch(ctx, log.Point.Lat, log.Point.Lng); ok {
			log.WeatherTemp = &obs.Temp
			log.WeatherCondition = &obs.Condition
		}
	}

	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, errors.Wrap(err, "persist safety log")
	}
	metrics.ReportsTotal.WithLabelValues(log.TriggerType).Inc()

	result, err := r.assessment.Assess(ctx, log)
	if err != nil {
		return nil, err
	}

	// 收到上报说明人还活着，超时窗口顺延
	r.monitor.Refresh(ctx, session)

	return &ReportResult{
		Log:         log,
		Level:       result.Level,
		Score:       result.Score,
		Reasons:     result.Reasons,
		PollSeconds: int(result.PollInterval.Seconds()),
	}, nil
}

// Sos 紧急求助：直接走告警通道，severity=critical
func (r *ReportService) Sos(ctx context.Context, sessionID, workerID uint, lat, lng *float64) (*CreateAlertResult, error) {
	if _, err := r.sessions.Owned(ctx, sessionID, workerID); err != nil {
		return nil, err
	}
	if (lat == nil) != (lng == nil) {
		return nil, errors.Validation("lat and lng must be supplied together")
	}
	return r.assessment.alerts.Create(ctx, CreateAlertInput{
		SessionID: sessionID,
		Type:      models.AlertSos,
		Severity:  models.SeverityCritical,
		Lat:       lat,
		Lng:       lng,
	})
}

// ListLogs 会话内的上报历史
func (r *ReportService) ListLogs(ctx context.Context, sessionID, workerID uint) ([]models.SafetyLog, error) {
	if _, err := r.sessions.Owned(ctx, sessionID, workerID); err != nil {
		return nil, err
	}
	var logs []models.SafetyLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("logged_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list safety logs")
	}
	return logs, nil
}

func (r *ReportService) buildLog(sessionID uint, in ReportInput) (*models.SafetyLog, error) {
	if !models.ValidTrigger(in.TriggerType) {
		return nil, errors.Validationf("invalid trigger type %q", in.TriggerType)
	}
	if in.BatteryLevel < 0 || in.BatteryLevel > 100 {
		return nil, errors.Validationf("battery level %d out of range [0,100]", in.BatteryLevel)
	}
	if in.GPSAccuracyM != nil && *in.GPSAccuracyM < 0 {
		return nil, errors.Validation("gps accuracy must be non-negative")
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return nil, errors.Validation("lat and lng must be supplied together")
	}

	loggedAt := time.Now()
	if in.LoggedAt != nil {
		loggedAt = *in.LoggedAt
	}
	log := &models.SafetyLog{
		SessionID:    sessionID,
		LoggedAt:     loggedAt,
		BatteryLevel: in.BatteryLevel,
		TriggerType:  in.TriggerType,
		GPSAccuracyM: in.GPSAccuracyM,
	}
	if in.Lat != nil {
		point, err := geo.NewPoint(*in.Lat, *in.Lng)
		if err != nil {
			return nil, errors.Validationf("invalid coordinates: %v", err)
		}
		log.Point = &point
	}
	return log, nil
}
