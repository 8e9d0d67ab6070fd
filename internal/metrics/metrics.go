package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValuationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairrent_valuation_requests_total",
			Help: "Valuation requests by outcome",
		},
		[]string{"outcome"},
	)

	ValuationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "fairrent_valuation_duration_seconds",
			Help: "Round trip time of valuation requests",
		},
	)

	ChatExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairrent_chat_exchanges_total",
			Help: "Assistant exchanges by outcome",
		},
		[]string{"outcome"},
	)

	ChatDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "fairrent_chat_duration_seconds",
			Help: "Round trip time of assistant requests",
		},
	)

	Comparisons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairrent_comparisons_total",
			Help: "Property comparisons by winning side",
		},
		[]string{"winner"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fairrent_active_sessions",
			Help: "Number of open advisor sessions",
		},
	)
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)
