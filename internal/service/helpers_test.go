package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"LoneGuard/internal/models"
	"LoneGuard/pkg/geo"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func seedWorker(t *testing.T, db *gorm.DB, home *geo.Point) *models.Worker {
	t.Helper()
	worker := &models.Worker{
		OrganizationID: 1,
		DisplayName:    "test worker",
		HomePoint:      home,
		HomeRadiusM:    50,
	}
	require.NoError(t, db.Create(worker).Error)
	return worker
}

func seedSession(t *testing.T, db *gorm.DB, workerID uint) *models.WorkSession {
	t.Helper()
	session := &models.WorkSession{
		WorkerID:       workerID,
		OrganizationID: 1,
		Status:         models.SessionInProgress,
		StartedAt:      time.Now(),
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func floatPtr(v float64) *float64 { return &v }

func pointAt(t *testing.T, lat, lng float64) *geo.Point {
	t.Helper()
	p, err := geo.NewPoint(lat, lng)
	require.NoError(t, err)
	return &p
}
