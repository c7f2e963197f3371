package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"LoneGuard/internal/models"
	"LoneGuard/pkg/errors"
)

func newAlertService(t *testing.T, window time.Duration) *AlertService {
	t.Helper()
	return NewAlertService(testDB(t), nil, window)
}

func TestCreateAlertDedup(t *testing.T) {
	svc := newAlertService(t, 5*time.Minute)
	worker := seedWorker(t, svc.db, nil)
	session := seedSession(t, svc.db, worker.ID)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateAlertInput{
		SessionID: session.ID,
		Type:      models.AlertSos,
		Severity:  models.SeverityCritical,
	})
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// 窗口内同 (session, type) 直接复用已有告警
	second, err := svc.Create(ctx, CreateAlertInput{
		SessionID: session.ID,
		Type:      models.AlertSos,
		Severity:  models.SeverityCritical,
	})
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.Alert.ID, second.Alert.ID)

	var count int64
	require.NoError(t, svc.db.Model(&models.Alert{}).
		Where("session_id = ?", session.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateAlertDedupBoundaries(t *testing.T) {
	svc := newAlertService(t, 5*time.Minute)
	worker := seedWorker(t, svc.db, nil)
	session := seedSession(t, svc.db, worker.ID)
	ctx := context.Background()

	t.Run("different type is not a duplicate", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateAlertInput{
			SessionID: session.ID, Type: models.AlertSos, Severity: models.SeverityCritical,
		})
		require.NoError(t, err)

		result, err := svc.Create(ctx, CreateAlertInput{
			SessionID: session.ID, Type: models.AlertRiskHigh, Severity: models.SeverityHigh,
		})
		require.NoError(t, err)
		require.False(t, result.Duplicate)
	})

	t.Run("resolved alert does not suppress", func(t *testing.T) {
		first, err := svc.Create(ctx, CreateAlertInput{
			SessionID: session.ID, Type: models.AlertTimeout, Severity: models.SeverityHigh,
		})
		require.NoError(t, err)
		_, err = svc.Resolve(ctx, first.Alert.ID, worker.ID)
		require.NoError(t, err)

		result, err := svc.Create(ctx, CreateAlertInput{
			SessionID: session.ID, Type: models.AlertTimeout, Severity: models.SeverityHigh,
		})
		require.NoError(t, err)
		require.False(t, result.Duplicate)
	})

	t.Run("alert outside the window does not suppress", func(t *testing.T) {
		first, err := svc.Create(ctx, CreateAlertInput{
			SessionID: session.ID, Type: models.AlertRiskMedium, Severity: models.SeverityMedium,
		})
		require.NoError(t, err)
		require.NoError(t, svc.db.Model(first.Alert).
			Update("created_at", time.Now().Add(-6*time.Minute)).Error)

		result, err := svc.Create(ctx, CreateAlertInput{
			SessionID: session.ID, Type: models.AlertRiskMedium, Severity: models.SeverityMedium,
		})
		require.NoError(t, err)
		require.False(t, result.Duplicate)
	})
}

func TestCreateAlertSnapshot(t *testing.T) {
	svc := newAlertService(t, 5*time.Minute)
	worker := seedWorker(t, svc.db, nil)
	session := seedSession(t, svc.db, worker.ID)
	ctx := context.Background()

	t.Run("coordinates produce a snapshot log", func(t *testing.T) {
		result, err := svc.Create(ctx, CreateAlertInput{
			SessionID: session.ID,
			Type:      models.AlertSos,
			Severity:  models.SeverityCritical,
			Lat:       floatPtr(35.0),
			Lng:       floatPtr(139.0),
		})
		require.NoError(t, err)
		require.NotNil(t, result.Alert.SafetyLogID)

		var snapshot models.SafetyLog
		require.NoError(t, svc.db.First(&snapshot, *result.Alert.SafetyLogID).Error)
		require.Equal(t, models.TriggerSos, snapshot.TriggerType)
		require.Zero(t, snapshot.BatteryLevel)
		require.NotNil(t, snapshot.Point)
		require.InDelta(t, 35.0, snapshot.Point.Lat, 1e-9)
	})

	t.Run("invalid coordinates do not block the alert", func(t *testing.T) {
		other := seedSession(t, svc.db, worker.ID)
		result, err := svc.Create(ctx, CreateAlertInput{
			SessionID: other.ID,
			Type:      models.AlertSos,
			Severity:  models.SeverityCritical,
			Lat:       floatPtr(123.0), // 纬度越界
			Lng:       floatPtr(139.0),
		})
		require.NoError(t, err)
		require.True(t, result.Success)
		require.Nil(t, result.Alert.SafetyLogID)
	})
}

func TestResolveAlert(t *testing.T) {
	svc := newAlertService(t, 5*time.Minute)
	worker := seedWorker(t, svc.db, nil)
	session := seedSession(t, svc.db, worker.ID)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateAlertInput{
		SessionID: session.ID, Type: models.AlertSos, Severity: models.SeverityCritical,
	})
	require.NoError(t, err)

	handlerID := uint(77)
	resolved, err := svc.Resolve(ctx, created.Alert.ID, handlerID)
	require.NoError(t, err)
	require.Equal(t, models.AlertResolved, resolved.Status)
	// resolved_at 与处理人同进同出
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.HandledByID)
	require.Equal(t, handlerID, *resolved.HandledByID)

	_, err = svc.Resolve(ctx, created.Alert.ID, handlerID)
	require.True(t, errors.IsConflict(err))

	_, err = svc.Resolve(ctx, 999999, handlerID)
	require.True(t, errors.IsNotFound(err))
}

func TestOrganizationSummary(t *testing.T) {
	svc := newAlertService(t, time.Minute)
	ctx := context.Background()

	worker := seedWorker(t, svc.db, nil) // org 1
	session := seedSession(t, svc.db, worker.ID)

	otherWorker := &models.Worker{OrganizationID: 2, DisplayName: "other org"}
	require.NoError(t, svc.db.Create(otherWorker).Error)
	otherSession := &models.WorkSession{
		WorkerID:       otherWorker.ID,
		OrganizationID: 2,
		Status:         models.SessionInProgress,
		StartedAt:      time.Now(),
	}
	require.NoError(t, svc.db.Create(otherSession).Error)

	mustCreate := func(sessionID uint, alertType, severity string) *models.Alert {
		result, err := svc.Create(ctx, CreateAlertInput{
			SessionID: sessionID, Type: alertType, Severity: severity,
		})
		require.NoError(t, err)
		require.False(t, result.Duplicate)
		return result.Alert
	}

	mustCreate(session.ID, models.AlertSos, models.SeverityCritical)
	mustCreate(session.ID, models.AlertRiskHigh, models.SeverityHigh)
	medium := mustCreate(session.ID, models.AlertRiskMedium, models.SeverityMedium)
	resolved := mustCreate(session.ID, models.AlertTimeout, models.SeverityHigh)
	_, err := svc.Resolve(ctx, resolved.ID, worker.ID)
	require.NoError(t, err)
	require.NoError(t, svc.db.Model(medium).
		Update("status", models.AlertInProgress).Error)

	// 别的组织的告警不计入
	mustCreate(otherSession.ID, models.AlertSos, models.SeverityCritical)

	summary, err := svc.OrganizationSummary(ctx, worker.OrganizationID)
	require.NoError(t, err)

	require.EqualValues(t, 3, summary.Unresolved) // sos + risk_high + in_progress
	require.EqualValues(t, 2, summary.Open)       // sos + risk_high
	require.EqualValues(t, 1, summary.InProgress)
	require.EqualValues(t, 2, summary.UrgentOpen) // critical sos + high risk_high
	require.EqualValues(t, 1, summary.Breakdown.SosOpen)
	require.Zero(t, summary.Breakdown.CriticalOpenNonSos)
}
