package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks lobby lifecycle transitions.
type Metrics struct {
	LobbiesCreated prometheus.Counter
	LobbiesStarted prometheus.Counter
	LobbiesReset   prometheus.Counter
	LobbiesClosed  prometheus.Counter
}

// New registers the lobby metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LobbiesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "arcadia_lobbies_created_total",
			Help: "Total number of lobbies created",
		}),
		LobbiesStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "arcadia_lobbies_started_total",
			Help: "Total number of lobbies that started a game",
		}),
		LobbiesReset: f.NewCounter(prometheus.CounterOpts{
			Name: "arcadia_lobbies_reset_total",
			Help: "Total number of lobbies returned to waiting after a game ended",
		}),
		LobbiesClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "arcadia_lobbies_cancelled_total",
			Help: "Total number of lobbies cancelled because the host left",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.LobbiesCreated.Inc()
	}
}

func (m *Metrics) IncrementStarted() {
	if m != nil {
		m.LobbiesStarted.Inc()
	}
}

func (m *Metrics) IncrementReset() {
	if m != nil {
		m.LobbiesReset.Inc()
	}
}

func (m *Metrics) IncrementCancelled() {
	if m != nil {
		m.LobbiesClosed.Inc()
	}
}
