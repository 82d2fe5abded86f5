package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dotcommander/assess/internal/assessment"
)

const metricsNamespace = "assess"

// Metrics exports scoring counters to Prometheus.
type Metrics struct {
	results     *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics registers the scoring collectors. Collectors already present in reg
// are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "results_total",
			Help:      "Assessments scored, by resolved type and validity.",
		}, []string{"type", "valid"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "diagnostics_total",
			Help:      "Fallbacks applied while scoring, by diagnostic code.",
		}, []string{"code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "score_duration_seconds",
			Help:      "Latency of a single scoring call.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	var err error
	if m.results, err = register(reg, m.results); err != nil {
		return nil, fmt.Errorf("register results counter: %w", err)
	}
	if m.diagnostics, err = register(reg, m.diagnostics); err != nil {
		return nil, fmt.Errorf("register diagnostics counter: %w", err)
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, fmt.Errorf("register duration histogram: %w", err)
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// Observe records one evaluation.
func (m *Metrics) Observe(ev assessment.Evaluation, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(ev.Result.AssessmentType, strconv.FormatBool(ev.Valid)).Inc()
	for _, d := range ev.Diagnostics {
		m.diagnostics.WithLabelValues(d.Code).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}
