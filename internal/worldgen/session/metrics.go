package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// stageDuration mirrors the teacher's ai/metrics.responseTimeHistogram
// pattern (a single promauto histogram labeled by stage) instead of one
// gauge per stage, since stage count is fixed but call volume isn't.
var stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "planetgen_stage_duration_seconds",
	Help:    "Duration of each world generation pipeline stage",
	Buckets: prometheus.DefBuckets,
}, []string{"stage"})

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "planetgen_active_sessions",
	Help: "Number of sessions holding retained pipeline state",
})

// stageMetrics is a thin per-Session wrapper so Session doesn't reach
// for the package-level vectors directly.
type stageMetrics struct{}

func newStageMetrics() *stageMetrics {
	return &stageMetrics{}
}

func (m *stageMetrics) observe(stage string, d time.Duration) {
	if d <= 0 {
		return
	}
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
