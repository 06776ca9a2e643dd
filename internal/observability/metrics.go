package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the generation client.
type Metrics struct {
	ActiveSession     prometheus.Gauge
	Sessions          *prometheus.CounterVec
	StreamEvents      *prometheus.CounterVec
	GenerationSeconds prometheus.Histogram
	ArtifactBytes     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSession: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_session",
			Help:      "1 while a generation session is running, else 0.",
		}),
		Sessions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Finished generation sessions by outcome.",
		}, []string{"outcome"}),
		StreamEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Progress stream events by kind.",
		}, []string{"kind"}),
		GenerationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_seconds",
			Help:      "Wall time of successful generation sessions in seconds.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80, 160, 320},
		}),
		ArtifactBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of materialized audio artifacts in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
	}
}

func (m *Metrics) ObserveGeneration(d time.Duration) {
	m.GenerationSeconds.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
