package service

import (
	"testing"
	"time"

	"LoneGuard/internal/models"
	"LoneGuard/pkg/geo"
)

func baseLog(trigger string, battery int) *models.SafetyLog {
	return &models.SafetyLog{
		SessionID:    1,
		LoggedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TriggerType:  trigger,
		BatteryLevel: battery,
	}
}

func TestScoreSosShortCircuits(t *testing.T) {
	log := baseLog(models.TriggerSos, 80)
	temp := 40.0
	log.WeatherTemp = &temp
	log.GPSAccuracyM = floatPtr(300)

	result := ScoreSafetyLog(RiskContext{Log: log, Now: log.LoggedAt})

	if result.Score != 999 {
		t.Errorf("score = %d, want 999", result.Score)
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != models.ReasonSosTrigger {
		t.Errorf("reasons = %v, want [sos_trigger] only", result.Reasons)
	}
	if len(result.Factors) != 1 {
		t.Errorf("factors = %v, want sos only", result.Factors)
	}
}

func TestScoreBatteryAndGPS(t *testing.T) {
	// 电量 5%、GPS 精度 120m：电量 +20、GPS +15
	log := baseLog(models.TriggerHeartbeat, 5)
	log.GPSAccuracyM = floatPtr(120)

	result := ScoreSafetyLog(RiskContext{Log: log, Now: log.LoggedAt})

	if result.Score != 35 {
		t.Errorf("score = %d, want 35", result.Score)
	}
	if result.Factors[models.FactorBattery] != 20 || result.Factors[models.FactorGPSAccuracy] != 15 {
		t.Errorf("factors = %v", result.Factors)
	}
	wantReasons := []models.ReasonCode{models.ReasonLowBattery, models.ReasonPoorGPSAccuracy}
	if len(result.Reasons) != len(wantReasons) {
		t.Fatalf("reasons = %v, want %v", result.Reasons, wantReasons)
	}
	for i, r := range wantReasons {
		if result.Reasons[i] != r {
			t.Errorf("reasons = %v, want %v", result.Reasons, wantReasons)
		}
	}
}

func TestScoreBatteryBrackets(t *testing.T) {
	cases := []struct {
		battery int
		want    int
	}{
		{0, 20}, {10, 20},
		{11, 10}, {20, 10},
		{21, 0}, {50, 0},
		{51, -10}, {100, -10},
	}
	for _, tc := range cases {
		result := ScoreSafetyLog(RiskContext{Log: baseLog(models.TriggerHeartbeat, tc.battery)})
		got := result.Factors[models.FactorBattery]
		if got != tc.want {
			t.Errorf("battery %d: factor = %d, want %d", tc.battery, got, tc.want)
		}
	}
}

func TestScoreTemperature(t *testing.T) {
	cases := []struct {
		name    string
		temp    float64
		want    int
		reasons []models.ReasonCode
	}{
		{"high heat", 35, 50, []models.ReasonCode{models.ReasonHighTemperature}},
		{"moderate heat", 30, 30, []models.ReasonCode{models.ReasonModerateHeat}},
		{"just below moderate", 29.9, 0, nil},
		{"cold", 5, 30, []models.ReasonCode{models.ReasonLowTemperature}},
		{"freezing", -10, 30, []models.ReasonCode{models.ReasonLowTemperature}},
		{"mild", 20, 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := baseLog(models.TriggerHeartbeat, 40)
			log.WeatherTemp = &tc.temp
			result := ScoreSafetyLog(RiskContext{Log: log, Now: log.LoggedAt})
			if got := result.Factors[models.FactorTemperature]; got != tc.want {
				t.Errorf("temperature factor = %d, want %d", got, tc.want)
			}
			if len(result.Reasons) != len(tc.reasons) {
				t.Errorf("reasons = %v, want %v", result.Reasons, tc.reasons)
			}
		})
	}
}

func TestScoreHomeArea(t *testing.T) {
	home := geo.Point{Lat: 35.0, Lng: 139.0}
	worker := &models.Worker{HomePoint: &home, HomeRadiusM: 50}

	t.Run("inside home area", func(t *testing.T) {
		log := baseLog(models.TriggerHeartbeat, 40)
		log.Point = &geo.Point{Lat: 35.0001, Lng: 139.0} // ~11m
		result := ScoreSafetyLog(RiskContext{Log: log, Worker: worker, Now: log.LoggedAt})
		if result.Factors[models.FactorLocation] != -50 {
			t.Errorf("location factor = %d, want -50", result.Factors[models.FactorLocation])
		}
		// 降分因子不出原因码
		for _, r := range result.Reasons {
			if r == models.ReasonOutsideHome {
				t.Error("unexpected outside_home reason")
			}
		}
		if result.Score != 0 {
			t.Errorf("score = %d, want 0 (clamped)", result.Score)
		}
	})

	t.Run("outside home area", func(t *testing.T) {
		log := baseLog(models.TriggerHeartbeat, 40)
		log.Point = &geo.Point{Lat: 35.01, Lng: 139.0} // ~1.1km
		result := ScoreSafetyLog(RiskContext{Log: log, Worker: worker, Now: log.LoggedAt})
		if result.Factors[models.FactorLocation] != 10 {
			t.Errorf("location factor = %d, want 10", result.Factors[models.FactorLocation])
		}
		if len(result.Reasons) != 1 || result.Reasons[0] != models.ReasonOutsideHome {
			t.Errorf("reasons = %v, want [outside_home]", result.Reasons)
		}
	})
}

func TestScoreInactivity(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	here := geo.Point{Lat: 35.0, Lng: 139.0}

	sample := func(minsAgo int, point geo.Point, accuracy float64) models.SafetyLog {
		return models.SafetyLog{
			LoggedAt:     now.Add(-time.Duration(minsAgo) * time.Minute),
			Point:        &point,
			GPSAccuracyM: floatPtr(accuracy),
		}
	}
	current := baseLog(models.TriggerHeartbeat, 40)
	current.Point = &here
	current.GPSAccuracyM = floatPtr(10)

	t.Run("stationary for an hour", func(t *testing.T) {
		recent := []models.SafetyLog{
			sample(55, here, 10),
			sample(40, here, 10),
			sample(20, here, 10),
			*current,
		}
		result := ScoreSafetyLog(RiskContext{Log: current, Recent: recent, Now: now})
		if result.Factors[models.FactorMovement] != 40 {
			t.Errorf("movement factor = %d, want 40", result.Factors[models.FactorMovement])
		}
		if len(result.Reasons) != 1 || result.Reasons[0] != models.ReasonLongInactive {
			t.Errorf("reasons = %v, want [long_inactive]", result.Reasons)
		}
		// 40 ≥ caution 门槛
		if result.Score != 40 {
			t.Errorf("score = %d, want 40", result.Score)
		}
	})

	t.Run("stationary for half an hour only", func(t *testing.T) {
		far := geo.Point{Lat: 35.01, Lng: 139.0}
		recent := []models.SafetyLog{
			sample(50, far, 10), // 60 分钟窗口内有移动
			sample(20, here, 10),
			*current,
		}
		result := ScoreSafetyLog(RiskContext{Log: current, Recent: recent, Now: now})
		if result.Factors[models.FactorMovement] != 25 {
			t.Errorf("movement factor = %d, want 25", result.Factors[models.FactorMovement])
		}
		if len(result.Reasons) != 1 || result.Reasons[0] != models.ReasonShortInactive {
			t.Errorf("reasons = %v, want [short_inactive]", result.Reasons)
		}
	})

	t.Run("inaccurate samples do not count", func(t *testing.T) {
		recent := []models.SafetyLog{
			sample(40, here, 80), // 精度不合格
			*current,
		}
		result := ScoreSafetyLog(RiskContext{Log: current, Recent: recent, Now: now})
		if _, ok := result.Factors[models.FactorMovement]; ok {
			t.Errorf("movement factor present with <2 accurate samples: %v", result.Factors)
		}
	})

	t.Run("single sample is not inactivity", func(t *testing.T) {
		result := ScoreSafetyLog(RiskContext{Log: current, Recent: []models.SafetyLog{*current}, Now: now})
		if _, ok := result.Factors[models.FactorMovement]; ok {
			t.Errorf("movement factor present with 1 sample: %v", result.Factors)
		}
	})
}

// 固定其他因子，恶化单一因子时总分单调不减
func TestScoreMonotonicity(t *testing.T) {
	score := func(battery int, accuracy float64, temp *float64) int {
		log := baseLog(models.TriggerHeartbeat, battery)
		log.GPSAccuracyM = floatPtr(accuracy)
		log.WeatherTemp = temp
		return ScoreSafetyLog(RiskContext{Log: log, Now: log.LoggedAt}).Score
	}

	if score(5, 50, nil) < score(15, 50, nil) || score(15, 50, nil) < score(40, 50, nil) {
		t.Error("score not monotone in battery depletion")
	}
	if score(40, 150, nil) < score(40, 50, nil) {
		t.Error("score not monotone in gps accuracy")
	}
	hot, warm := 36.0, 31.0
	if score(40, 50, &hot) < score(40, 50, &warm) {
		t.Error("score not monotone in temperature")
	}
}
