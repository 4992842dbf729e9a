// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stereo_call_transcriber"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Request metrics
	RequestsTotal   prometheus.Counter
	RequestsActive  prometheus.Gauge
	RequestsSuccess prometheus.Counter
	RequestsFailed  prometheus.Counter
	RequestDuration prometheus.Histogram

	// Upload metrics
	UploadBytesReceived prometheus.Counter
	UploadsRejected     *prometheus.CounterVec

	// Recognition engine metrics
	EngineLatency *prometheus.HistogramVec
	EngineErrors  *prometheus.CounterVec

	// Transcript core metrics
	SegmentsFused     prometheus.Counter
	WordsFused        prometheus.Counter
	RewindowApplied   prometheus.Counter
	RewindowFallbacks prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of transcription requests received",
		}),
		RequestsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_active",
			Help:      "Number of transcription requests currently in flight",
		}),
		RequestsSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_success_total",
			Help:      "Total number of successfully completed requests",
		}),
		RequestsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_failed_total",
			Help:      "Total number of failed requests",
		}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end duration of transcription requests in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		UploadBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_received_total",
			Help:      "Total uploaded audio bytes received",
		}),
		UploadsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Total uploads rejected before transcription",
		}, []string{"reason"}),

		EngineLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_latency_seconds",
			Help:      "Latency of recognition engine calls per channel",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"engine"}),
		EngineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Total recognition engine errors",
		}, []string{"engine"}),

		SegmentsFused: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_fused_total",
			Help:      "Total segments emitted by transcript fusion",
		}),
		WordsFused: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_fused_total",
			Help:      "Total words emitted by transcript fusion",
		}),
		RewindowApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewindow_applied_total",
			Help:      "Total requests where rewindowing replaced the engine segmentation",
		}),
		RewindowFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewindow_fallbacks_total",
			Help:      "Total requests where rewindowing fell back to the original segments",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total Kafka publish attempts",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total Kafka publish failures",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Latency of Kafka publishes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"topic"}),
	}
}

// RecordRequestStart records a new transcription request starting.
func (m *Metrics) RecordRequestStart() {
	m.RequestsTotal.Inc()
	m.RequestsActive.Inc()
}

// RecordRequestEnd records a transcription request ending.
func (m *Metrics) RecordRequestEnd(success bool, durationSeconds float64) {
	m.RequestsActive.Dec()
	m.RequestDuration.Observe(durationSeconds)
	if success {
		m.RequestsSuccess.Inc()
	} else {
		m.RequestsFailed.Inc()
	}
}

// RecordUpload records uploaded audio bytes.
func (m *Metrics) RecordUpload(bytes int) {
	m.UploadBytesReceived.Add(float64(bytes))
}

// RecordUploadRejected records an upload rejected before transcription.
func (m *Metrics) RecordUploadRejected(reason string) {
	m.UploadsRejected.WithLabelValues(reason).Inc()
}

// RecordEngineCall records a recognition engine call.
func (m *Metrics) RecordEngineCall(engine string, err error, latencySeconds float64) {
	m.EngineLatency.WithLabelValues(engine).Observe(latencySeconds)
	if err != nil {
		m.EngineErrors.WithLabelValues(engine).Inc()
	}
}

// RecordFusion records the size of a fused transcript.
func (m *Metrics) RecordFusion(segments, words int) {
	m.SegmentsFused.Add(float64(segments))
	m.WordsFused.Add(float64(words))
}

// RecordRewindow records whether rewindowing replaced the segmentation.
func (m *Metrics) RecordRewindow(applied bool) {
	if applied {
		m.RewindowApplied.Inc()
	} else {
		m.RewindowFallbacks.Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}
