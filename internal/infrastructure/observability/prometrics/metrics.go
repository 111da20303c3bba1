// Package prometrics adapts github.com/prometheus/client_golang to the
// observability.Metrics port, caching one CounterVec/HistogramVec per metric
// key so call sites never re-register (and panic) a collector.
package prometrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopmini/paycore/internal/observability"
)

// Spec describes a single counter or histogram to pre-register.
type Spec struct {
	Key        observability.MetricKey
	Help       string
	LabelKeys  []string
	Buckets    []float64 // non-nil only for histograms
	Histogram  bool
}

type registry struct {
	namespace  string
	counters   sync.Map // MetricKey -> *prometheus.CounterVec
	histograms sync.Map // MetricKey -> *prometheus.HistogramVec
}

// New builds a Metrics implementation and eagerly registers every spec with
// the default Prometheus registry.
func New(namespace string, specs []Spec) observability.Metrics {
	r := &registry{namespace: namespace}
	for _, s := range specs {
		if s.Histogram {
			hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      string(s.Key),
				Help:      s.Help,
				Buckets:   s.Buckets,
			}, s.LabelKeys)
			prometheus.MustRegister(hv)
			r.histograms.Store(s.Key, hv)
			continue
		}
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      string(s.Key),
			Help:      s.Help,
		}, s.LabelKeys)
		prometheus.MustRegister(cv)
		r.counters.Store(s.Key, cv)
	}
	return r
}

func (r *registry) Counter(name observability.MetricKey) observability.Counter {
	v, ok := r.counters.Load(name)
	if !ok {
		return observability.NopCounter()
	}
	return &counter{v: v.(*prometheus.CounterVec)}
}

func (r *registry) Histogram(name observability.MetricKey) observability.Histogram {
	v, ok := r.histograms.Load(name)
	if !ok {
		return observability.NopHistogram()
	}
	return &histogram{v: v.(*prometheus.HistogramVec)}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}
