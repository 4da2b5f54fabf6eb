package gosequence

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus instrumentation for sequence runs. One
// Metrics value can observe any number of sequences; series are labeled by
// sequence and stage name.
type Metrics struct {
	sequencesTotal *prometheus.CounterVec
	stagesTotal    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves registration to the caller via Collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sequencesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gosequence",
			Name:      "runs_total",
			Help:      "Completed sequence runs by outcome.",
		}, []string{"sequence", "outcome"}),
		stagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gosequence",
			Name:      "stages_total",
			Help:      "Completed stage executions by outcome.",
		}, []string{"sequence", "stage", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gosequence",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of stage executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sequence", "stage"}),
	}

	if reg != nil {
		for _, c := range m.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Collectors returns the underlying collectors for manual registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.sequencesTotal, m.stagesTotal, m.stageDuration}
}

// Observe attaches the metrics to a sequence's update stream. Call it
// before Start so no update is missed; the returned function detaches the
// observer.
func (m *Metrics) Observe(s *Sequence) func() {
	starts := make(map[StageName]time.Time)
	return s.Listen(nil, func(u SequenceUpdate) {
		switch u.Type {
		case UpdateStageStart:
			starts[u.Stage] = time.Now()
		case UpdateStageEnd:
			outcome := outcomeLabel(u.Success != nil && *u.Success)
			m.stagesTotal.WithLabelValues(s.Name(), string(u.Stage), outcome).Inc()
			if t0, ok := starts[u.Stage]; ok {
				m.stageDuration.WithLabelValues(s.Name(), string(u.Stage)).Observe(time.Since(t0).Seconds())
				delete(starts, u.Stage)
			}
		case UpdateSequenceEnd:
			m.sequencesTotal.WithLabelValues(s.Name(), outcomeLabel(u.Success != nil && *u.Success)).Inc()
		}
	})
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
