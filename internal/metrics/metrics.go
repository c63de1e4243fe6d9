package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "setbook",
			Name:      "booking_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingEdited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "setbook",
			Name:      "booking_edited_total",
			Help:      "Count of booking quantity edits.",
		},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "setbook",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled by users.",
		},
	)

	resets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "setbook",
			Name:      "reset_total",
			Help:      "Count of admin resets of all booking state.",
		},
	)

	notifyErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "setbook",
			Name:      "notify_errors_total",
			Help:      "Count of failed admin notification deliveries.",
		},
	)

	droppedUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "setbook",
			Name:      "updates_dropped_total",
			Help:      "Count of inbound updates dropped by the per-user rate limiter.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingEdited, bookingCancelled, resets, notifyErrors, droppedUpdates)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingEdited() {
	bookingEdited.Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncReset() {
	resets.Inc()
}

func IncNotifyError() {
	notifyErrors.Inc()
}

func IncDroppedUpdate() {
	droppedUpdates.Inc()
}
