package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alterations"

var (
	// Registry contiene los collectors propios del servicio.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	ordersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders created.",
	})

	paymentsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "payments_recorded_total",
		Help:      "Payments recorded against orders, by method.",
	}, []string{"method"})

	webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "webhook_events_total",
		Help:      "Inbound payments webhook events, by type and result.",
	}, []string{"type", "result"})

	notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "published_total",
		Help:      "Domain notifications published, by type and result.",
	}, []string{"type", "result"})

	remindersSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "appointments",
		Name:      "reminders_sent_total",
		Help:      "Appointment reminders dispatched.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersCreated,
		paymentsRecorded,
		webhookEvents,
		notificationsPublished,
		remindersSent,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler expone el registry en formato Prometheus.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler mide requests usando el route pattern de chi como label
// (evita cardinalidad alta con IDs en el path).
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func OrderCreated() {
	ordersCreated.Inc()
}

func PaymentRecorded(method string) {
	paymentsRecorded.WithLabelValues(method).Inc()
}

func WebhookEvent(eventType, result string) {
	if eventType == "" {
		eventType = "unknown"
	}
	webhookEvents.WithLabelValues(eventType, result).Inc()
}

func NotificationPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	notificationsPublished.WithLabelValues(eventType, result).Inc()
}

func RemindersSent(n int) {
	if n > 0 {
		remindersSent.Add(float64(n))
	}
}
