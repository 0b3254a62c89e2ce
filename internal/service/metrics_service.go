package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the ledger engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	scanRows        *prometheus.HistogramVec
	queueDepth      prometheus.Gauge
	eventsTotal     *prometheus.CounterVec
	archiveRuns     prometheus.Counter
	archiveRows     prometheus.Counter
	notifySent      prometheus.Counter
	notifyFailed    prometheus.Counter
	notifyDropped   prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	scanRows := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_scan_rows",
		Help:    "Rows inspected per bounded table scan",
		Buckets: []float64{10, 50, 100, 300, 500, 1000, 5000},
	}, []string{"scan"})

	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notification_queue_depth",
		Help: "Pending notification intents in the queue",
	})

	eventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_events_total",
		Help: "Recorded attendance events by type and result",
	}, []string{"type", "result"})

	archiveRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archive_runs_total",
		Help: "Completed archival passes",
	})

	archiveRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archive_rows_total",
		Help: "Rows moved to monthly partitions",
	})

	notifySent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Guardian notifications dispatched",
	})

	notifyFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Guardian notifications that failed to dispatch",
	})

	notifyDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Notification intents dropped by the bounded queue",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheHits, cacheMisses,
		scanRows, queueDepth, eventsTotal, archiveRuns, archiveRows,
		notifySent, notifyFailed, notifyDropped, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		scanRows:        scanRows,
		queueDepth:      queueDepth,
		eventsTotal:     eventsTotal,
		archiveRuns:     archiveRuns,
		archiveRows:     archiveRows,
		notifySent:      notifySent,
		notifyFailed:    notifyFailed,
		notifyDropped:   notifyDropped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, _ time.Duration) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveScan records how many rows a bounded table scan inspected.
func (m *MetricsService) ObserveScan(scan string, rows int) {
	if m == nil {
		return
	}
	m.scanRows.WithLabelValues(scan).Observe(float64(rows))
}

// SetQueueDepth reports the current notification queue depth.
func (m *MetricsService) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// RecordEvent counts one attendance event by type and outcome.
func (m *MetricsService) RecordEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(eventType, result).Inc()
}

// RecordArchiveRun counts a completed archival pass and the rows it moved.
func (m *MetricsService) RecordArchiveRun(archived int) {
	if m == nil {
		return
	}
	m.archiveRuns.Inc()
	m.archiveRows.Add(float64(archived))
}

// RecordNotification counts one dispatch attempt.
func (m *MetricsService) RecordNotification(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.notifySent.Inc()
	} else {
		m.notifyFailed.Inc()
	}
}

// RecordNotificationDropped counts intents evicted by the bounded queue.
func (m *MetricsService) RecordNotificationDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notifyDropped.Add(float64(n))
}
