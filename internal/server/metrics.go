package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the analysis service
type Metrics struct {
	AnalysesTotal *prometheus.CounterVec
	RiskScore     prometheus.Histogram
	Retrainings   prometheus.Counter
}

// NewMetrics creates all service metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AnalysesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bec_analyses_total",
				Help: "Total number of emails analyzed, by verdict level",
			},
			[]string{"risk_level"},
		),
		RiskScore: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bec_risk_score",
				Help:    "Distribution of fused risk scores",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),
		Retrainings: f.NewCounter(
			prometheus.CounterOpts{
				Name: "bec_retrainings_total",
				Help: "Total number of snapshot rebuilds",
			},
		),
	}
}
