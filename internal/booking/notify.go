package booking

import (
	"context"

	"setbook/internal/models"
)

// CreatedEvent describes a fresh booking.
type CreatedEvent struct {
	UserID    string
	Identity  models.Identity
	Sets      int
	Timestamp string
}

// EditEvent describes a quantity change on an active booking.
type EditEvent struct {
	UserID    string
	Identity  models.Identity
	Before    int
	After     int
	Timestamp string
}

// CancelEvent describes a cancellation; Sets is the quantity before it.
type CancelEvent struct {
	UserID    string
	Identity  models.Identity
	Sets      int
	Timestamp string
}

// Notifier delivers outcome notifications to the admin. Implementations must
// log delivery failures themselves; a lost notification never fails the
// mutation that produced it.
type Notifier interface {
	BookingCreated(ctx context.Context, ev CreatedEvent)
	BookingEdited(ctx context.Context, ev EditEvent)
	BookingCancelled(ctx context.Context, ev CancelEvent)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) BookingCreated(context.Context, CreatedEvent) {}
func (NopNotifier) BookingEdited(context.Context, EditEvent)     {}
func (NopNotifier) BookingCancelled(context.Context, CancelEvent) {}
