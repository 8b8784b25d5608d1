package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure.
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Monitoring loop metrics
	tickCounter       prometheus.Counter
	tickLatency       prometheus.Histogram
	violationsGauge   prometheus.Gauge
	portfolioValue    prometheus.Gauge
	marketDataFetches *prometheus.CounterVec

	// Risk report metrics
	riskScoreGauge  prometheus.Gauge
	varGauge        prometheus.Gauge
	volatilityGauge prometheus.Gauge
}

// NewRecorder creates and registers all metrics.
func NewRecorder() *Recorder {
	return &Recorder{
		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"method", "path"},
		),
		tickCounter: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "risk_monitor_ticks_total",
				Help: "The total number of completed monitoring ticks",
			},
		),
		tickLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "risk_monitor_tick_seconds",
				Help:    "Monitoring tick duration distribution",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		violationsGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_limit_violations",
				Help: "Number of risk limit violations at the last check",
			},
		),
		portfolioValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_portfolio_value",
				Help: "Total portfolio value at the last tick",
			},
		),
		marketDataFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_market_data_fetches_total",
				Help: "Market data fetches by symbol and outcome",
			},
			[]string{"symbol", "status"},
		),
		riskScoreGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_score",
				Help: "Portfolio risk score (0-100) from the last report",
			},
		),
		varGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_value_at_risk",
				Help: "Portfolio Value at Risk from the last report",
			},
		),
		volatilityGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_portfolio_volatility",
				Help: "Annualized portfolio volatility from the last report",
			},
		),
	}
}

// RecordAPIRequest records metrics for an API request.
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordTick records the outcome of a monitoring tick.
func (r *Recorder) RecordTick(latency time.Duration, violations int, portfolioValue float64) {
	r.tickCounter.Inc()
	r.tickLatency.Observe(latency.Seconds())
	r.violationsGauge.Set(float64(violations))
	r.portfolioValue.Set(portfolioValue)
}

// RecordMarketDataFetch records a market data fetch attempt.
func (r *Recorder) RecordMarketDataFetch(symbol string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	r.marketDataFetches.WithLabelValues(symbol, status).Inc()
}

// RecordRiskReport records the headline figures of a risk report.
func (r *Recorder) RecordRiskReport(score, valueAtRisk, volatility float64, violations int) {
	r.riskScoreGauge.Set(score)
	r.varGauge.Set(valueAtRisk)
	r.volatilityGauge.Set(volatility)
	r.violationsGauge.Set(float64(violations))
}
