package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 业务指标
var (
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loneguard_reports_total",
			Help: "Safety reports ingested, by trigger type",
		},
		[]string{"trigger"},
	)

	RiskLevelTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loneguard_risk_level_total",
			Help: "Risk assessments produced, by level",
		},
		[]string{"level"},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loneguard_alerts_total",
			Help: "Alerts created, by type and severity",
		},
		[]string{"type", "severity"},
	)

	AlertsDeduplicatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loneguard_alerts_deduplicated_total",
			Help: "Alert requests suppressed by the dedup window, by type",
		},
		[]string{"type"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loneguard_sessions_active",
			Help: "Sessions currently in progress",
		},
	)

	TimeoutJobsFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loneguard_timeout_jobs_fired_total",
			Help: "No-report timeout jobs that fired",
		},
	)
)

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
