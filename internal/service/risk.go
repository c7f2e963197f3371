package service

import (
	"time"

	"LoneGuard/internal/models"
)

// 评分常数，来源于运营侧的风险模型
const (
	scoreSos            = 999
	scoreInsideHome     = -50
	scoreOutsideHome    = 10
	scoreLongInactive   = 40
	scoreShortInactive  = 25
	scoreHighTemp       = 50
	scoreModerateHeat   = 30
	scoreLowTemp        = 30
	scoreLowBattery     = 20
	scoreBatteryCaution = 10
	scoreHealthyBattery = -10
	scorePoorGPS        = 15

	defaultHomeRadiusM = 50.0

	// 静止判定：窗口内精度合格（≤50m）的样本全部落在当前点 5m 内
	inactiveLongWindow  = 60 * time.Minute
	inactiveShortWindow = 30 * time.Minute
	accurateGPSMaxM     = 50.0
	inactiveRadiusM     = 5.0
	inactiveMinSamples  = 2

	highTempC     = 35.0
	moderateTempC = 30.0
	lowTempC      = 5.0

	poorGPSAccuracyM = 100.0
)

// RiskContext 一次评分的全部输入
type RiskContext struct {
	Log    *models.SafetyLog
	Worker *models.Worker
	// 当前时刻前 60 分钟内该会话的上报（含当前条）
	Recent []models.SafetyLog
	Now    time.Time
}

// RiskResult 因子分与原因码。原因码只记录推高风险的因子。
type RiskResult struct {
	Score   int
	Factors map[string]int
	Reasons []models.ReasonCode
}

// ScoreSafetyLog 纯函数评分。SOS 短路：只返回 sos_trigger，忽略其余因子。
func ScoreSafetyLog(rc RiskContext) RiskResult {
	if rc.Log.TriggerType == models.TriggerSos {
		return RiskResult{
			Score:   scoreSos,
			Factors: map[string]int{models.FactorSos: scoreSos},
			Reasons: []models.ReasonCode{models.ReasonSosTrigger},
		}
	}

	factors := make(map[string]int)
	var reasons []models.ReasonCode
	addReason := func(code models.ReasonCode) {
		for _, r := range reasons {
			if r == code {
				return
			}
		}
		reasons = append(reasons, code)
	}

	// 位置：配置了安全区且本次带坐标才参与
	if rc.Worker != nil && rc.Worker.HomePoint != nil && rc.Log.Point != nil {
		radius := rc.Worker.HomeRadiusM
		if radius <= 0 {
			radius = defaultHomeRadiusM
		}
		if rc.Log.Point.WithinRadius(*rc.Worker.HomePoint, radius) {
			factors[models.FactorLocation] = scoreInsideHome
		} else {
			factors[models.FactorLocation] = scoreOutsideHome
			addReason(models.ReasonOutsideHome)
		}
	}

	// 静止：先看 60 分钟窗口，不满足再看 30 分钟
	if rc.Log.Point != nil {
		if inactiveWithin(rc, inactiveLongWindow) {
			factors[models.FactorMovement] = scoreLongInactive
			addReason(models.ReasonLongInactive)
		} else if inactiveWithin(rc, inactiveShortWindow) {
			factors[models.FactorMovement] = scoreShortInactive
			addReason(models.ReasonShortInactive)
		}
	}

	// 温度：高温段与低温段独立判定，命中多段时叠加
	if rc.Log.WeatherTemp != nil {
		t := *rc.Log.WeatherTemp
		temp := 0
		if t >= highTempC {
			temp += scoreHighTemp
			addReason(models.ReasonHighTemperature)
		} else if t >= moderateTempC {
			temp += scoreModerateHeat
			addReason(models.ReasonModerateHeat)
		}
		if t <= lowTempC {
			temp += scoreLowTemp
			addReason(models.ReasonLowTemperature)
		}
		if temp != 0 {
			factors[models.FactorTemperature] = temp
		}
	}

	// 电量
	switch b := rc.Log.BatteryLevel; {
	case b <= 10:
		factors[models.FactorBattery] = scoreLowBattery
		addReason(models.ReasonLowBattery)
	case b <= 20:
		factors[models.FactorBattery] = scoreBatteryCaution
		addReason(models.ReasonBatteryCaution)
	case b > 50:
		factors[models.FactorBattery] = scoreHealthyBattery
	}

	// GPS 精度
	if rc.Log.GPSAccuracyM != nil && *rc.Log.GPSAccuracyM > poorGPSAccuracyM {
		factors[models.FactorGPSAccuracy] = scorePoorGPS
		addReason(models.ReasonPoorGPSAccuracy)
	}

	total := 0
	for _, v := range factors {
		total += v
	}
	if total < 0 {
		total = 0
	}
	return RiskResult{Score: total, Factors: factors, Reasons: reasons}
}

// inactiveWithin 窗口内精度合格的样本 ≥2 条且全部贴着当前点
func inactiveWithin(rc RiskContext, window time.Duration) bool {
	cutoff := rc.Now.Add(-window)
	samples := 0
	for i := range rc.Recent {
		s := &rc.Recent[i]
		if s.LoggedAt.Before(cutoff) {
			continue
		}
		if s.Point == nil || s.GPSAccuracyM == nil || *s.GPSAccuracyM > accurateGPSMaxM {
			continue
		}
		if s.Point.DistanceMeters(*rc.Log.Point) > inactiveRadiusM {
			return false
		}
		samples++
	}
	return samples >= inactiveMinSamples
}
