package models

import "strconv"

// Status of a booking record.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Log entry statuses, written verbatim into the audit log.
const (
	LogBooked    = "Booked"
	LogEdited    = "Edited"
	LogCancelled = "Cancelled"
)

// TimestampLayout is used for log timestamps and user-facing confirmations.
const TimestampLayout = "2006-01-02 15:04:05"

// Identity carries the display attributes of the user behind an intent.
type Identity struct {
	Username string
	FullName string
}

// BookingRecord is the durable booking state for one user.
// SetsBeforeCancel is meaningful only while Status is cancelled.
type BookingRecord struct {
	Username         string `json:"username"`
	FullName         string `json:"full_name"`
	Sets             int    `json:"sets"`
	Status           Status `json:"status"`
	SetsBeforeCancel int    `json:"sets_before_cancel,omitempty"`
}

// IsActive reports whether the record holds an active booking.
func (r *BookingRecord) IsActive() bool {
	return r.Status == StatusActive
}

// LogEntry is one row of the append-only mutation log.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Change    string `json:"change"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
}

// FormatChange renders a signed delta the way the log expects it:
// positive values get an explicit plus sign, zero stays "0".
func FormatChange(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
