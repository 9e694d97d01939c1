package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinica"

var (
	AppointmentsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "appointments_scheduled_total", Help: "Number of appointments created."},
	)
	AppointmentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "appointment_transitions_total", Help: "Number of lifecycle transitions by target status."},
		[]string{"to"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifications_total", Help: "Number of notification attempts by channel and result."},
		[]string{"channel", "result"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Number of HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AppointmentsScheduled)
	reg.MustRegister(AppointmentTransitions)
	reg.MustRegister(Notifications)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
}
