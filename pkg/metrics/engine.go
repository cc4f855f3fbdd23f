package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records counters for the tracking engine's hot paths.
type EngineMetrics struct {
	transitions        *prometheus.CounterVec
	conflictFindings   *prometheus.CounterVec
	capacityRejections prometheus.Counter
	snapshotRebuild    prometheus.Histogram
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_transitions_total",
		Help: "Committed tracking transitions by action.",
	}, []string{"action"})
	findings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_findings_total",
		Help: "Conflict detector findings by severity.",
	}, []string{"severity"})
	rejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capacity_rejections_total",
		Help: "Commit-time capacity rejections.",
	})
	rebuild := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_rebuild_seconds",
		Help:    "Duration of occupancy snapshot recomputation.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(transitions, findings, rejections, rebuild)
	return &EngineMetrics{
		transitions:        transitions,
		conflictFindings:   findings,
		capacityRejections: rejections,
		snapshotRebuild:    rebuild,
	}
}

// IncTransition counts one committed transition for the named action.
func (m *EngineMetrics) IncTransition(action string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncFinding counts one conflict finding for the named severity.
func (m *EngineMetrics) IncFinding(severity string) {
	if m == nil || m.conflictFindings == nil {
		return
	}
	m.conflictFindings.WithLabelValues(normalizeLabel(severity)).Inc()
}

// IncCapacityRejection counts one commit-time capacity rejection.
func (m *EngineMetrics) IncCapacityRejection() {
	if m == nil || m.capacityRejections == nil {
		return
	}
	m.capacityRejections.Inc()
}

// ObserveSnapshotRebuild records the duration of a snapshot recomputation.
func (m *EngineMetrics) ObserveSnapshotRebuild(d time.Duration) {
	if m == nil || m.snapshotRebuild == nil {
		return
	}
	m.snapshotRebuild.Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
