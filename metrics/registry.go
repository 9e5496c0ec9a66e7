// Package metrics implements Prometheus instrumentation for the producer and
// its broker clients.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics and provides an interface for recording
// them without global state.
type Registry struct {
	registry *prometheus.Registry

	// Producer metrics
	produceTotal     *prometheus.CounterVec
	produceDuration  *prometheus.HistogramVec
	produceBatchSize *prometheus.HistogramVec

	// Broker client metrics
	sendTotal            *prometheus.CounterVec
	sendDuration         *prometheus.HistogramVec
	partitionLookupTotal *prometheus.CounterVec

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		produceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaffe_producer_produce_total",
				Help: "Total number of produce operations",
			},
			[]string{"topic", "status"}, // status: success, error
		),

		produceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kaffe_producer_produce_duration_seconds",
				Help:    "Time spent in produce operations, grouping and submission included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		),

		produceBatchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kaffe_producer_batch_size",
				Help:    "Number of messages per produce operation",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"topic"},
		),

		sendTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaffe_client_send_total",
				Help: "Total number of partition batch submissions",
			},
			[]string{"topic", "partition", "status"}, // status: success, error
		),

		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kaffe_client_send_duration_seconds",
				Help:    "Time spent submitting partition batches to the broker",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic", "partition"},
		),

		partitionLookupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaffe_client_partition_lookup_total",
				Help: "Total number of partition count lookups",
			},
			[]string{"topic", "status"}, // status: success, error
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kaffe_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"version", "build_time"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kaffe_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry.MustRegister(
		r.produceTotal,
		r.produceDuration,
		r.produceBatchSize,
		r.sendTotal,
		r.sendDuration,
		r.partitionLookupTotal,
		r.systemInfo,
		r.startTime,
	)

	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// RecordProduce records one produce operation as seen by the caller.
func (r *Registry) RecordProduce(topic string, batchSize int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.produceTotal.WithLabelValues(topic, status).Inc()
	r.produceDuration.WithLabelValues(topic).Observe(duration.Seconds())
	if err == nil {
		r.produceBatchSize.WithLabelValues(topic).Observe(float64(batchSize))
	}
}

// RecordSend records one partition batch submission.
func (r *Registry) RecordSend(topic string, partition int32, duration time.Duration, err error) {
	partitionStr := strconv.Itoa(int(partition))
	status := "success"
	if err != nil {
		status = "error"
	}

	r.sendTotal.WithLabelValues(topic, partitionStr, status).Inc()
	r.sendDuration.WithLabelValues(topic, partitionStr).Observe(duration.Seconds())
}

// RecordPartitionLookup records one partition count lookup.
func (r *Registry) RecordPartitionLookup(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.partitionLookupTotal.WithLabelValues(topic, status).Inc()
}

// SetSystemInfo sets system information metrics.
func (r *Registry) SetSystemInfo(version, buildTime string) {
	r.systemInfo.WithLabelValues(version, buildTime).Set(1)
}
