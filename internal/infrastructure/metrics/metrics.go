package metrics

import (
	"net/http"
	"time"

	portsout "invoicesweep/internal/application/ports/out"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SweepMetrics owns a private registry served by Handler.
type SweepMetrics struct {
	registry *prometheus.Registry

	withdrawBatches  *prometheus.CounterVec
	withdrawDuration *prometheus.HistogramVec
	sweepTransfers   *prometheus.CounterVec
	deposits         *prometheus.CounterVec
	autoSweepCycles  *prometheus.CounterVec
}

var _ portsout.SweepMetrics = (*SweepMetrics)(nil)

func NewSweepMetrics() *SweepMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &SweepMetrics{
		registry: registry,
		withdrawBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoicesweep_withdraw_batches_total",
				Help: "Total number of withdraw batches by mode and result",
			},
			[]string{"mode", "result"},
		),
		withdrawDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invoicesweep_withdraw_batch_duration_seconds",
				Help:    "Withdraw batch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		sweepTransfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoicesweep_sweep_transfers_total",
				Help: "Total number of committed sweep transfers by asset kind",
			},
			[]string{"asset_kind"},
		),
		deposits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoicesweep_deposits_total",
				Help: "Total number of recorded deposits by source",
			},
			[]string{"source"},
		),
		autoSweepCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoicesweep_autosweep_cycles_total",
				Help: "Total number of auto-sweep cycles by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.withdrawBatches,
		m.withdrawDuration,
		m.sweepTransfers,
		m.deposits,
		m.autoSweepCycles,
	)
	return m
}

func (m *SweepMetrics) ObserveWithdraw(mode string, result string, duration time.Duration) {
	m.withdrawBatches.WithLabelValues(mode, result).Inc()
	m.withdrawDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (m *SweepMetrics) AddSweepTransfers(assetKind string, count int) {
	if count <= 0 {
		return
	}
	m.sweepTransfers.WithLabelValues(assetKind).Add(float64(count))
}

func (m *SweepMetrics) IncDeposits(source string) {
	m.deposits.WithLabelValues(source).Inc()
}

func (m *SweepMetrics) IncAutoSweepCycle(result string) {
	m.autoSweepCycles.WithLabelValues(result).Inc()
}

func (m *SweepMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *SweepMetrics) Registry() *prometheus.Registry {
	return m.registry
}
