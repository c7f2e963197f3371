package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"LoneGuard/internal/models"
	"LoneGuard/pkg/errors"
	"LoneGuard/pkg/geo"
	"LoneGuard/pkg/logger"
	"LoneGuard/pkg/metrics"
	"LoneGuard/pkg/notification"
)

const defaultDedupWindow = 5 * time.Minute

// AlertService 告警创建（带去重）与组织级统计
type AlertService struct {
	db          *gorm.DB
	notifier    notification.Notifier
	dedupWindow time.Duration
}

func NewAlertService(db *gorm.DB, notifier notification.Notifier, dedupWindow time.Duration) *AlertService {
	if dedupWindow <= 0 {
		dedupWindow = defaultDedupWindow
	}
	return &AlertService{db: db, notifier: notifier, dedupWindow: dedupWindow}
}

type CreateAlertInput struct {
	SessionID   uint
	Type        string
	Severity    string
	SafetyLogID *uint
	// 无快照日志时的落点坐标，成对出现
	Lat *float64
	Lng *float64
}

type CreateAlertResult struct {
	Duplicate bool          `json:"duplicate"`
	Success   bool          `json:"success"`
	Alert     *models.Alert `json:"alert"`
}

// Create 创建告警。滑动去重窗口内同 (session, type) 的未关闭告警直接复用；
// 快照日志创建失败不阻断告警；通知下发异步、失败不回滚。
func (s *AlertService) Create(ctx context.Context, in CreateAlertInput) (*CreateAlertResult, error) {
	var existing models.Alert
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND alert_type = ? AND status = ? AND created_at > ?",
			in.SessionID, in.Type, models.AlertOpen, time.Now().Add(-s.dedupWindow)).
		Order("created_at DESC").
		First(&existing).Error
	if err == nil {
		metrics.AlertsDeduplicatedTotal.WithLabelValues(in.Type).Inc()
		return &CreateAlertResult{Duplicate: true, Success: true, Alert: &existing}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(err, "alert dedup lookup failed")
	}

	// 只有坐标没有日志时，尽力补一条快照日志锚定位置。
	// 快照失败只记日志：SOS 场景下发告警比附带证据更重要。
	if in.SafetyLogID == nil && in.Lat != nil && in.Lng != nil {
		if point, perr := geo.NewPoint(*in.Lat, *in.Lng); perr != nil {
			logger.Warn("alert snapshot coordinates invalid",
				zap.Uint("session_id", in.SessionID), zap.Error(perr))
		} else {
			snapshot := models.SafetyLog{
				SessionID:    in.SessionID,
				LoggedAt:     time.Now(),
				TriggerType:  models.TriggerSos,
				BatteryLevel: 0,
				Point:        &point,
			}
			if cerr := s.db.WithContext(ctx).Create(&snapshot).Error; cerr != nil {
				logger.Warn("alert snapshot log creation failed",
					zap.Uint("session_id", in.SessionID), zap.Error(cerr))
			} else {
				in.SafetyLogID = &snapshot.ID
			}
		}
	}

	alert := models.Alert{
		SessionID:   in.SessionID,
		AlertType:   in.Type,
		Severity:    in.Severity,
		Status:      models.AlertOpen,
		SafetyLogID: in.SafetyLogID,
	}
	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		return nil, errors.Wrap(err, "alert creation failed")
	}
	metrics.AlertsTotal.WithLabelValues(in.Type, in.Severity).Inc()

	if notifiable(&alert) {
		notification.Dispatch(s.notifier, notification.AlertMessage{
			AlertID:   alert.ID,
			SessionID: alert.SessionID,
			Type:      alert.AlertType,
			Severity:  alert.Severity,
			CreatedAt: alert.CreatedAt,
		})
	}
	return &CreateAlertResult{Success: true, Alert: &alert}, nil
}

// notifiable 高危及以上才推通知
func notifiable(a *models.Alert) bool {
	return a.Severity == models.SeverityHigh || a.Severity == models.SeverityCritical
}

// Resolve 关闭告警，resolved_at 与处理人必须同时置位
func (s *AlertService) Resolve(ctx context.Context, alertID, handlerID uint) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.WithContext(ctx).First(&alert, alertID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("alert not found")
		}
		return nil, errors.Wrap(err, "load alert")
	}
	if alert.Status == models.AlertResolved {
		return nil, errors.Conflict("alert already resolved")
	}

	now := time.Now()
	alert.Status = models.AlertResolved
	alert.ResolvedAt = &now
	alert.HandledByID = &handlerID
	if err := s.db.WithContext(ctx).Save(&alert).Error; err != nil {
		return nil, errors.Wrap(err, "resolve alert")
	}
	return &alert, nil
}

// OrganizationSummary 组织维度的只读统计
func (s *AlertService) OrganizationSummary(ctx context.Context, orgID uint) (*models.AlertSummary, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Alert{}).
			Joins("JOIN work_sessions ON work_sessions.id = alerts.session_id").
			Where("work_sessions.organization_id = ?", orgID)
	}

	var summary models.AlertSummary
	if err := base().Where("alerts.status <> ?", models.AlertResolved).
		Count(&summary.Unresolved).Error; err != nil {
		return nil, errors.Wrap(err, "alert summary query")
	}
	if err := base().Where("alerts.status = ?", models.AlertOpen).
		Count(&summary.Open).Error; err != nil {
		return nil, errors.Wrap(err, "alert summary query")
	}
	if err := base().Where("alerts.status = ?", models.AlertInProgress).
		Count(&summary.InProgress).Error; err != nil {
		return nil, errors.Wrap(err, "alert summary query")
	}
	if err := base().Where("alerts.status = ?", models.AlertOpen).
		Where("alerts.severity = ? OR (alerts.severity = ? AND alerts.alert_type IN ?)",
			models.SeverityCritical, models.SeverityHigh,
			[]string{models.AlertSos, models.AlertRiskHigh}).
		Count(&summary.UrgentOpen).Error; err != nil {
		return nil, errors.Wrap(err, "alert summary query")
	}
	if err := base().Where("alerts.status = ? AND alerts.alert_type = ?",
		models.AlertOpen, models.AlertSos).
		Count(&summary.Breakdown.SosOpen).Error; err != nil {
		return nil, errors.Wrap(err, "alert summary query")
	}
	if err := base().Where("alerts.status = ? AND alerts.severity = ? AND alerts.alert_type <> ?",
		models.AlertOpen, models.SeverityCritical, models.AlertSos).
		Count(&summary.Breakdown.CriticalOpenNonSos).Error; err != nil {
		return nil, errors.Wrap(err, "alert summary query")
	}
	return &summary, nil
}
