// Package metrics exposes Prometheus instrumentation for roster generation and
// playtester state changes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the instrumentation surface used by the services.
type Recorder interface {
	ObserveRoster(kind string, members, shortfall int)
	ObserveMutation(transition, outcome string)
	ObserveCommand(verb, outcome string)
}

// Nop discards every observation.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) ObserveRoster(string, int, int) {}
func (Nop) ObserveMutation(string, string) {}
func (Nop) ObserveCommand(string, string) {}

// Collector records observations into Prometheus metrics.
type Collector struct {
	rosters   *prometheus.CounterVec
	size      *prometheus.HistogramVec
	shortfall *prometheus.CounterVec
	mutations *prometheus.CounterVec
	commands  *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates and registers the roster metrics on reg
// (prometheus.DefaultRegisterer when nil) under namespace ("playtest" when empty).
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "playtest"
	}

	c := &Collector{
		rosters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "draws_total",
			Help:      "Rosters drawn, by kind (preview or generate).",
		}, []string{"kind"}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "members",
			Help:      "Number of members in drawn rosters.",
			Buckets:   []float64{1, 2, 4, 6, 8, 12, 16, 24, 32, 50},
		}, []string{"kind"}),
		shortfall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "shortfall_seats_total",
			Help:      "Requested seats that could not be filled.",
		}, []string{"kind"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playtester",
			Name:      "mutations_total",
			Help:      "Playtester state transitions by transition and outcome.",
		}, []string{"transition", "outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "command",
			Name:      "requests_total",
			Help:      "Dispatched commands by verb and outcome.",
		}, []string{"verb", "outcome"}),
	}

	for _, col := range []prometheus.Collector{c.rosters, c.size, c.shortfall, c.mutations, c.commands} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRoster records one drawn roster.
func (c *Collector) ObserveRoster(kind string, members, shortfall int) {
	c.rosters.WithLabelValues(kind).Inc()
	c.size.WithLabelValues(kind).Observe(float64(members))
	if shortfall > 0 {
		c.shortfall.WithLabelValues(kind).Add(float64(shortfall))
	}
}

// ObserveMutation records one state transition attempt.
func (c *Collector) ObserveMutation(transition, outcome string) {
	c.mutations.WithLabelValues(transition, outcome).Inc()
}

// ObserveCommand records one dispatched command.
func (c *Collector) ObserveCommand(verb, outcome string) {
	c.commands.WithLabelValues(verb, outcome).Inc()
}
