package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder собирает счётчики прогона сверки. Методы на nil ничего не делают.
type Recorder struct {
	journeys    *prometheus.CounterVec // result: linked|partial_linked|missing|skipped
	matches     *prometheus.CounterVec // stage
	writes      *prometheus.CounterVec // outcome: proposed|succeeded|failed
	confidence  prometheus.Histogram
	pageLatency prometheus.Histogram
}

// NewRecorder регистрирует метрики в reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		journeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "image_recon",
			Name:      "journeys_total",
			Help:      "Journey documents visited, by resulting status.",
		}, []string{"result"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "image_recon",
			Name:      "role_matches_total",
			Help:      "Resolved roles by match stage.",
		}, []string{"stage"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "image_recon",
			Name:      "writes_total",
			Help:      "Journey updates by outcome.",
		}, []string{"outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "image_recon",
			Name:      "journey_confidence",
			Help:      "Average confidence of journeys with at least one matched role.",
			Buckets:   []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.92, 0.95, 1},
		}),
		pageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "image_recon",
			Name:      "page_seconds",
			Help:      "Time to read and process one page of journeys.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.journeys, r.matches, r.writes, r.confidence, r.pageLatency)
	return r
}

func (r *Recorder) Journey(result string) {
	if r == nil {
		return
	}
	r.journeys.WithLabelValues(result).Inc()
}

// Match учитывает стадию; fuzzy_best_sim_0.83 сводится к fuzzy_best_sim.
func (r *Recorder) Match(reason string) {
	if r == nil {
		return
	}
	stage := reason
	if i := strings.Index(reason, "_sim_"); i >= 0 {
		stage = reason[:i+len("_sim")]
	}
	r.matches.WithLabelValues(stage).Inc()
}

func (r *Recorder) Writes(outcome string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.writes.WithLabelValues(outcome).Add(float64(n))
}

func (r *Recorder) Confidence(v float64) {
	if r == nil {
		return
	}
	r.confidence.Observe(v)
}

func (r *Recorder) Page(d time.Duration) {
	if r == nil {
		return
	}
	r.pageLatency.Observe(d.Seconds())
}
