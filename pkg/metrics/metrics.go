// Package metrics provides Prometheus metrics for the engine pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics collects and exposes pipeline-related Prometheus metrics.
type EngineMetrics struct {
	registry *prometheus.Registry

	// Input metrics
	QuotesTotal    *prometheus.CounterVec
	QuotesRejected *prometheus.CounterVec
	HistoryRows    prometheus.Gauge

	// Stage metrics
	StageDuration *prometheus.HistogramVec
	MatchesScored *prometheus.CounterVec
	Fallbacks     *prometheus.CounterVec

	// Model metrics
	RhoEstimate     prometheus.Gauge
	OutcomeEntropy  prometheus.Histogram
	CalibrationMode *prometheus.GaugeVec

	// Portfolio metrics
	TicketWinProb   prometheus.Histogram
	TicketHitCounts prometheus.Histogram
	PortfolioVaR    prometheus.Gauge
	PortfolioES     prometheus.Gauge
	TopStakeWeight  prometheus.Gauge

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

// NewEngineMetrics creates a new engine metrics collector on a private
// registry.
func NewEngineMetrics() *EngineMetrics {
	registry := prometheus.NewRegistry()

	em := &EngineMetrics{
		registry: registry,

		QuotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loteca_quotes_total",
				Help: "Odds quotes seen, by provider",
			},
			[]string{"provider"},
		),
		QuotesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loteca_quotes_rejected_total",
				Help: "Odds quotes rejected as invalid, by provider",
			},
			[]string{"provider"},
		),
		HistoryRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loteca_history_rows",
				Help: "Historical result rows used by the last ratings fit",
			},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loteca_stage_duration_seconds",
				Help:    "Wall time per pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"stage"},
		),
		MatchesScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loteca_matches_scored_total",
				Help: "Matches scored, by model",
			},
			[]string{"model"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loteca_fallbacks_total",
				Help: "Degraded-path events (uniform consensus, neutral rating, identity calibration)",
			},
			[]string{"kind"},
		),

		RhoEstimate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loteca_rho_estimate",
				Help: "Fitted Dixon-Coles low-score correlation",
			},
		),
		OutcomeEntropy: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loteca_outcome_entropy_nats",
				Help:    "Per-match final outcome entropy",
				Buckets: prometheus.LinearBuckets(0, 0.1, 12),
			},
		),
		CalibrationMode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "loteca_calibration_mode",
				Help: "1 for the active calibration mode, 0 otherwise",
			},
			[]string{"mode"},
		),

		TicketWinProb: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loteca_ticket_win_prob",
				Help:    "Analytic full-win probability of chosen tickets",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
			},
		),
		TicketHitCounts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loteca_ticket_hit_counts",
				Help:    "Simulated per-draw hit counts of the top ticket",
				Buckets: prometheus.LinearBuckets(0, 1, 15),
			},
		),
		PortfolioVaR: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loteca_portfolio_var",
				Help: "Portfolio Value-at-Risk of the last run",
			},
		),
		PortfolioES: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loteca_portfolio_es",
				Help: "Portfolio Expected Shortfall of the last run",
			},
		),
		TopStakeWeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loteca_top_stake_weight",
				Help: "Stake weight of the heaviest ticket after diversification",
			},
		),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loteca_runs_total",
				Help: "Pipeline runs, by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loteca_run_duration_seconds",
				Help:    "End-to-end pipeline wall time",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
	}

	em.registerAll()
	return em
}

func (em *EngineMetrics) registerAll() {
	em.registry.MustRegister(
		em.QuotesTotal,
		em.QuotesRejected,
		em.HistoryRows,
		em.StageDuration,
		em.MatchesScored,
		em.Fallbacks,
		em.RhoEstimate,
		em.OutcomeEntropy,
		em.CalibrationMode,
		em.TicketWinProb,
		em.TicketHitCounts,
		em.PortfolioVaR,
		em.PortfolioES,
		em.TopStakeWeight,
		em.RunsTotal,
		em.RunDuration,
	)
}

// Registry returns the underlying registry for HTTP exposure.
func (em *EngineMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// RecordQuote counts one quote, flagging rejection.
func (em *EngineMetrics) RecordQuote(provider string, rejected bool) {
	em.QuotesTotal.WithLabelValues(provider).Inc()
	if rejected {
		em.QuotesRejected.WithLabelValues(provider).Inc()
	}
}

// RecordStage records one stage's wall time.
func (em *EngineMetrics) RecordStage(stage string, durationSec float64) {
	em.StageDuration.WithLabelValues(stage).Observe(durationSec)
}

// RecordFallback counts one degraded-path event.
func (em *EngineMetrics) RecordFallback(kind string) {
	em.Fallbacks.WithLabelValues(kind).Inc()
}

// RecordScored counts matches scored by one model.
func (em *EngineMetrics) RecordScored(model string, n int) {
	em.MatchesScored.WithLabelValues(model).Add(float64(n))
}

// SetCalibrationMode marks the active calibration mode.
func (em *EngineMetrics) SetCalibrationMode(mode string) {
	for _, m := range []string{"isotonic", "identity"} {
		v := 0.0
		if m == mode {
			v = 1
		}
		em.CalibrationMode.WithLabelValues(m).Set(v)
	}
}

// RecordPortfolio records the final portfolio figures.
func (em *EngineMetrics) RecordPortfolio(vaR, es, topWeight float64) {
	em.PortfolioVaR.Set(vaR)
	em.PortfolioES.Set(es)
	em.TopStakeWeight.Set(topWeight)
}

// RecordRun counts one run with its total duration.
func (em *EngineMetrics) RecordRun(status string, durationSec float64) {
	em.RunsTotal.WithLabelValues(status).Inc()
	em.RunDuration.Observe(durationSec)
}
