package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level collectors for the ops server.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	ReadinessFailing *prometheus.GaugeVec
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcadia_ops_http_requests_total",
			Help: "Requests served by the ops server",
		}, []string{"route", "code"}),
		ReadinessFailing: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arcadia_readiness_check_failing",
			Help: "1 while a readiness dependency check is failing",
		}, []string{"check"}),
	}
}

func (m *Metrics) IncrementRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}

func (m *Metrics) setReadiness(check string, failing bool) {
	if m == nil {
		return
	}
	v := 0.0
	if failing {
		v = 1
	}
	m.ReadinessFailing.WithLabelValues(check).Set(v)
}

// Check tests one dependency.
type Check func(ctx context.Context) error

// Health is the registry of readiness checks (postgres, redis, kafka).
type Health struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
	metrics *Metrics
}

func NewHealth(m *Metrics) *Health {
	return &Health{checks: make(map[string]Check), timeout: 2 * time.Second, metrics: m}
}

func (h *Health) Register(name string, check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Result is the outcome of one check; Error is empty when healthy.
type Result struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// Run executes every check with a bounded timeout, sorted by name.
func (h *Health) Run(ctx context.Context) ([]Result, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(h.checks))
	for k, v := range h.checks {
		checks[k] = v
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ready := true
	results := make([]Result, 0, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := checks[name](cctx)
		cancel()
		res := Result{Name: name}
		if err != nil {
			res.Error = err.Error()
			ready = false
		}
		h.metrics.setReadiness(name, err != nil)
		results = append(results, res)
	}
	return results, ready
}
