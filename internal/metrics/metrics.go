// Package metrics exposes the Prometheus collectors of the progress engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stressless"

var (
	recommendations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exercise",
		Name:      "recommendations_total",
		Help:      "Recommendation requests partitioned by outcome (ok, fallback, none).",
	}, []string{"outcome"})
	sessionsFinalized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exercise",
		Name:      "sessions_finalized_total",
		Help:      "Practice attempts persisted as session records.",
	})
	completionHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "exercise",
		Name:      "completion_percentage",
		Help:      "Completion percentage of finalized sessions.",
		Buckets:   []float64{0, 10, 25, 50, 75, 90, 100},
	})
	achievementsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "achievements",
		Name:      "awarded_total",
		Help:      "Achievements transitioned to earned, by name.",
	}, []string{"achievement"})
	evaluationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "achievements",
		Name:      "evaluation_failures_total",
		Help:      "Achievement evaluations that stopped on a persistence error.",
	})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Open websocket connections on this instance.",
	})
	wsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "dropped_events_total",
		Help:      "Events not delivered because a buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(
		recommendations,
		sessionsFinalized,
		completionHistogram,
		achievementsAwarded,
		evaluationFailures,
		httpDuration,
		wsConnections,
		wsDropped,
	)
}

// Recommendation outcomes.
const (
	OutcomeMatched  = "ok"
	OutcomeFallback = "fallback"
	OutcomeNone     = "none"
)

// RecordRecommendation counts one recommendation request.
func RecordRecommendation(outcome string) {
	recommendations.WithLabelValues(outcome).Inc()
}

// RecordSessionFinalized counts a persisted session and observes its completion.
func RecordSessionFinalized(completion float64) {
	sessionsFinalized.Inc()
	completionHistogram.Observe(completion)
}

// RecordAchievementAwarded counts one newly earned achievement.
func RecordAchievementAwarded(name string) {
	achievementsAwarded.WithLabelValues(name).Inc()
}

// RecordEvaluationFailure counts an evaluation that could not complete.
func RecordEvaluationFailure() {
	evaluationFailures.Inc()
}

// ObserveHTTP records the latency of one served request.
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(route, method, statusLabel(status)).Observe(elapsed.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// WSConnected tracks a websocket connection opening (+1) or closing (-1).
func WSConnected(delta int) {
	wsConnections.Add(float64(delta))
}

// RecordWSDropped counts an event dropped on a full buffer.
func RecordWSDropped() {
	wsDropped.Inc()
}
