package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "labportal"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Created bookings, split by whether a conflict was detected.",
		},
		[]string{"conflict"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Booking status transitions applied by admins.",
		},
		[]string{"from", "to"},
	)

	cascadeEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_effects_total",
			Help:      "Secondary cascade effects by effect and result.",
		},
		[]string{"effect", "result"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and result.",
		},
		[]string{"kind", "result"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Booking attempts rejected by the requester rate limit.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, statusTransitions, cascadeEffects, notifications, rateLimited)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated(hasConflict bool) {
	label := "false"
	if hasConflict {
		label = "true"
	}
	bookingsCreated.WithLabelValues(label).Inc()
}

func IncStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

func IncCascadeEffect(effect string, ok bool) {
	cascadeEffects.WithLabelValues(effect, result(ok)).Inc()
}

func IncNotification(kind string, ok bool) {
	notifications.WithLabelValues(kind, result(ok)).Inc()
}

func IncRateLimited() {
	rateLimited.Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
