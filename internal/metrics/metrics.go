// Package metrics exposes relay counters in the Prometheus format.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	streams       *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	tokens        *prometheus.CounterVec
	firstToken    *prometheus.HistogramVec
	streamLatency *prometheus.HistogramVec
	catalogSyncs  *prometheus.CounterVec
	activeModels  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gloriamundo",
			Name:      "chat_streams_total",
			Help:      "Chat relays by outcome.",
		}, []string{"outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gloriamundo",
			Name:      "model_fallbacks_total",
			Help:      "Model substitutions by content class, reason and mode.",
		}, []string{"class", "reason", "mode"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gloriamundo",
			Name:      "tokens_total",
			Help:      "Tokens relayed by model and direction.",
		}, []string{"model", "direction"}),
		firstToken: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gloriamundo",
			Name:      "first_token_seconds",
			Help:      "Time to the first relayed content chunk.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		streamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gloriamundo",
			Name:      "stream_duration_seconds",
			Help:      "Total duration of a relayed stream.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"model"}),
		catalogSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gloriamundo",
			Name:      "catalog_refresh_total",
			Help:      "OpenRouter catalog refreshes by result.",
		}, []string{"result"}),
		activeModels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gloriamundo",
			Name:      "active_models",
			Help:      "Active models after the last catalog refresh.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.streams, m.fallbacks, m.tokens, m.firstToken, m.streamLatency, m.catalogSyncs, m.activeModels,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Stream outcomes: "completed", "fallback_deferred", "upstream_error",
// "invalid_chunk", "client_gone" and "no_api_key".
func (m *Metrics) Stream(outcome string) {
	if m == nil {
		return
	}
	m.streams.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Fallback(class, reason, mode string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(class, reason, mode).Inc()
}

func (m *Metrics) Tokens(model string, prompt, completion int) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(model, "prompt").Add(float64(prompt))
	m.tokens.WithLabelValues(model, "completion").Add(float64(completion))
}

func (m *Metrics) Latency(model string, firstToken, total time.Duration) {
	if m == nil {
		return
	}
	if firstToken > 0 {
		m.firstToken.WithLabelValues(model).Observe(firstToken.Seconds())
	}
	m.streamLatency.WithLabelValues(model).Observe(total.Seconds())
}

func (m *Metrics) CatalogRefresh(err error, active int) {
	if m == nil {
		return
	}
	if err != nil {
		m.catalogSyncs.WithLabelValues("error").Inc()
		return
	}
	m.catalogSyncs.WithLabelValues("ok").Inc()
	m.activeModels.Set(float64(active))
}

var defaultMetrics atomic.Pointer[Metrics]

func SetDefault(m *Metrics) {
	defaultMetrics.Store(m)
}

// Default returns the registry installed at start. It is nil when metrics
// are disabled, and every recorder accepts a nil receiver.
func Default() *Metrics {
	return defaultMetrics.Load()
}
