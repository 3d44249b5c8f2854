package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radiantbloom",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "radiantbloom",
			Name:      "bookings_created_total",
			Help:      "Successfully confirmed bookings.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "radiantbloom",
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken.",
		},
	)

	availabilityBuilds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "radiantbloom",
			Name:      "availability_build_seconds",
			Help:      "Latency of availability matrix builds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radiantbloom",
			Name:      "notifications_total",
			Help:      "Outbound notifications by channel and status.",
		},
		[]string{"channel", "status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingConflicts, availabilityBuilds, notifications)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts one confirmed booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncBookingConflict counts one slot-taken rejection.
func IncBookingConflict() {
	bookingConflicts.Inc()
}

// ObserveAvailabilityBuild records matrix build latency for a service.
func ObserveAvailabilityBuild(service string, seconds float64) {
	availabilityBuilds.WithLabelValues(service).Observe(seconds)
}

// IncNotification counts one delivery attempt per channel.
func IncNotification(channel, status string) {
	notifications.WithLabelValues(channel, status).Inc()
}
