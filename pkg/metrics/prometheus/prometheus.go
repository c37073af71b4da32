// Package prometheus implements metrics.Client on top of a dedicated
// Prometheus registry.
package prometheus

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
)

const durationSuffix = "_seconds"

type (
	// MetricsClient turns Inc calls into counters, or histograms for duration keys.
	// Label names are fixed by the first call for a given key.
	MetricsClient struct {
		namespace string
		registry  *prometheus.Registry

		mu         sync.Mutex
		counters   map[string]*vec[*prometheus.CounterVec]
		histograms map[string]*vec[*prometheus.HistogramVec]
	}

	vec[T any] struct {
		collector T
		labels    []string
	}
)

func NewMetricsClient(namespace string) *MetricsClient {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsClient{
		namespace:  sanitize(namespace),
		registry:   registry,
		counters:   make(map[string]*vec[*prometheus.CounterVec]),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
	}
}

func (c *MetricsClient) Inc(_ context.Context, key string, value any, attributes ...attribute.KeyValue) {
	amount, ok := toFloat(value)
	if !ok || amount < 0 {
		return
	}

	name := sanitize(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if isDuration(key) {
		if !strings.HasSuffix(name, durationSuffix) {
			name += durationSuffix
		}

		h, err := c.histogram(name, attributes)
		if err != nil {
			return
		}

		h.collector.WithLabelValues(labelValues(h.labels, attributes)...).Observe(amount)

		return
	}

	counter, err := c.counter(name, attributes)
	if err != nil {
		return
	}

	counter.collector.WithLabelValues(labelValues(counter.labels, attributes)...).Add(amount)
}

func (c *MetricsClient) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry so callers can register their own collectors.
func (c *MetricsClient) Registry() *prometheus.Registry {
	return c.registry
}

func (c *MetricsClient) Shutdown(_ context.Context) error {
	return nil
}

func (c *MetricsClient) counter(name string, attributes []attribute.KeyValue) (*vec[*prometheus.CounterVec], error) {
	if existing, ok := c.counters[name]; ok {
		return existing, nil
	}

	labels := labelNames(attributes)
	collector := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      "Counter for " + name,
	}, labels)

	if err := c.registry.Register(collector); err != nil {
		return nil, err
	}

	created := &vec[*prometheus.CounterVec]{collector: collector, labels: labels}
	c.counters[name] = created

	return created, nil
}

func (c *MetricsClient) histogram(name string, attributes []attribute.KeyValue) (*vec[*prometheus.HistogramVec], error) {
	if existing, ok := c.histograms[name]; ok {
		return existing, nil
	}

	labels := labelNames(attributes)
	collector := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      "Duration of " + strings.TrimSuffix(name, durationSuffix) + " in seconds",
		Buckets:   prometheus.DefBuckets,
	}, labels)

	if err := c.registry.Register(collector); err != nil {
		return nil, err
	}

	created := &vec[*prometheus.HistogramVec]{collector: collector, labels: labels}
	c.histograms[name] = created

	return created, nil
}

func isDuration(key string) bool {
	lower := strings.ToLower(key)

	return strings.HasSuffix(lower, "duration") || strings.HasSuffix(lower, "duration_seconds")
}

func labelNames(attributes []attribute.KeyValue) []string {
	names := make([]string, 0, len(attributes))
	for _, attr := range attributes {
		names = append(names, sanitize(string(attr.Key)))
	}

	return names
}

// labelValues orders attribute values by the registered label names.
// Missing labels become empty strings, unknown ones are dropped.
func labelValues(names []string, attributes []attribute.KeyValue) []string {
	byName := make(map[string]string, len(attributes))
	for _, attr := range attributes {
		byName[sanitize(string(attr.Key))] = attr.Value.Emit()
	}

	values := make([]string, len(names))
	for i, name := range names {
		values[i] = byName[name]
	}

	return values
}

func sanitize(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	for i, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}

			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case time.Duration:
		return v.Seconds(), true
	default:
		return 0, false
	}
}
