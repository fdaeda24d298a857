package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bnt"

// Metrics 应用指标，使用独立的 Registry，方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	ordersCreated     *prometheus.CounterVec
	orderTransitions  *prometheus.CounterVec
	orderTransitionNG *prometheus.CounterVec
	mediaUploads      *prometheus.CounterVec
	mediaSyncImported prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "created_total",
			Help:      "Orders created, by payment method.",
		}, []string{"payment_method"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "status_transitions_total",
			Help:      "Applied order status transitions.",
		}, []string{"from", "to"}),
		orderTransitionNG: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "status_transition_rejected_total",
			Help:      "Rejected order status transitions, by reason.",
		}, []string{"reason"}),
		mediaUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Media uploads, by backend and result.",
		}, []string{"source", "result"}),
		mediaSyncImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "cloudinary_sync_imported_total",
			Help:      "Cloudinary resources imported into the media table.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersCreated,
		m.orderTransitions,
		m.orderTransitionNG,
		m.mediaUploads,
		m.mediaSyncImported,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// OrderCreated 订单创建计数
func (m *Metrics) OrderCreated(paymentMethod string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(paymentMethod).Inc()
}

// OrderStatusChanged 状态流转计数
func (m *Metrics) OrderStatusChanged(from, to string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(from, to).Inc()
}

// OrderStatusRejected 被拒绝的状态流转计数，reason 为 invalid_transition 或 conflict
func (m *Metrics) OrderStatusRejected(reason string) {
	if m == nil {
		return
	}
	m.orderTransitionNG.WithLabelValues(reason).Inc()
}

// MediaUploaded 媒体上传计数
func (m *Metrics) MediaUploaded(source string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mediaUploads.WithLabelValues(source, result).Inc()
}

// MediaSyncImported 同步导入数量
func (m *Metrics) MediaSyncImported(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.mediaSyncImported.Add(float64(count))
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
