package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Granted           prometheus.Counter
	DuplicatesSkipped prometheus.Counter
	Evaluations       prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Granted: f.NewCounter(prometheus.CounterOpts{
			Name: "arcadia_achievements_granted_total",
			Help: "Total number of achievements granted to players",
		}),
		DuplicatesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "arcadia_achievements_duplicate_grants_total",
			Help: "Total number of grants skipped because the player already held the achievement",
		}),
		Evaluations: f.NewCounter(prometheus.CounterOpts{
			Name: "arcadia_achievements_evaluations_total",
			Help: "Total number of player evaluations after a game ended",
		}),
	}
}

func (m *Metrics) IncrementGranted() {
	if m != nil {
		m.Granted.Inc()
	}
}

func (m *Metrics) IncrementDuplicate() {
	if m != nil {
		m.DuplicatesSkipped.Inc()
	}
}

func (m *Metrics) IncrementEvaluations() {
	if m != nil {
		m.Evaluations.Inc()
	}
}
