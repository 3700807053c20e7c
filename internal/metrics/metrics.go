// Package metrics exposes Prometheus collectors for chunk ingestion and the
// embedded store.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recon"

// Metrics owns a registry so tests and multiple runtimes don't collide on
// the global one.
type Metrics struct {
	reg *prometheus.Registry

	uploads        *prometheus.CounterVec
	rowsPrepared   *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	published      *prometheus.CounterVec

	storeOps      *prometheus.CounterVec
	storeBytes    *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_uploads_total",
			Help:      "Chunk uploads by source and outcome kind",
		}, []string{"source", "outcome"}),
		rowsPrepared: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_prepared_total",
			Help:      "Rows prepared by source and recon status",
		}, []string{"source", "status"}),
		uploadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_upload_duration_seconds",
			Help:      "Time to validate, prepare and publish one chunk",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"source"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_published_total",
			Help:      "Publish attempts by queue and result",
		}, []string{"queue", "result"}),
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Embedded store operations",
		}, []string{"op"}),
		storeBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_bytes_total",
			Help:      "Bytes read from or written to the embedded store",
		}, []string{"op"}),
		storeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Embedded store latency",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"op"}),
	}
}

// Registry is exposed for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveUpload records one finished upload. outcome is "ok" or an error kind.
func (m *Metrics) ObserveUpload(source, outcome string, pending, failed int, d time.Duration) {
	m.uploads.WithLabelValues(source, outcome).Inc()
	m.uploadDuration.WithLabelValues(source).Observe(d.Seconds())
	if pending > 0 {
		m.rowsPrepared.WithLabelValues(source, "Pending").Add(float64(pending))
	}
	if failed > 0 {
		m.rowsPrepared.WithLabelValues(source, "Failed").Add(float64(failed))
	}
}

// ObservePublish records a publish attempt.
func (m *Metrics) ObservePublish(queue string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(queue, result).Inc()
}

// ObserveWrite, ObserveRead and ObserveBatchCommit make Metrics a
// pebblestore.MetricsHook.
func (m *Metrics) ObserveWrite(d time.Duration, bytes int) { m.observeStore("write", d, bytes) }

func (m *Metrics) ObserveRead(d time.Duration, bytes int) { m.observeStore("read", d, bytes) }

func (m *Metrics) ObserveBatchCommit(d time.Duration, ops, bytes int) {
	m.observeStore("commit", d, bytes)
	m.storeOps.WithLabelValues("commit_ops").Add(float64(ops))
}

func (m *Metrics) observeStore(op string, d time.Duration, bytes int) {
	m.storeOps.WithLabelValues(op).Inc()
	m.storeBytes.WithLabelValues(op).Add(float64(bytes))
	m.storeDuration.WithLabelValues(op).Observe(d.Seconds())
}
