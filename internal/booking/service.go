// Package booking implements the per-user booking state machine: create,
// edit and cancel transitions with their validation, plus the admin-facing
// projections over the record store.
package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"setbook/internal/metrics"
	"setbook/internal/models"
	"setbook/internal/storage"
)

var (
	// ErrNonPositiveSets rejects bookings for zero or negative quantities.
	ErrNonPositiveSets = errors.New("sets must be positive")
	// ErrNegativeTotal rejects edits that would take the total below zero.
	ErrNegativeTotal = errors.New("total sets cannot go below zero")
	// ErrNoActiveBooking rejects edit/cancel without an active booking.
	ErrNoActiveBooking = errors.New("no active booking")
	// ErrUserNotFound means no record matched the requested username.
	ErrUserNotFound = errors.New("user not found")
)

// Service owns the record store and applies all booking transitions.
// A record moves NoBooking -> Active -> Cancelled; a fresh Book from
// Cancelled (or from nothing) re-enters Active by overwriting the record.
type Service struct {
	store    *storage.Store
	notifier Notifier
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewService wires the state machine to its store and notifier.
func NewService(store *storage.Store, notifier Notifier, logger *zerolog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) timestamp() string {
	return s.now().Format(models.TimestampLayout)
}

// Current returns the stored record for a user, if any.
func (s *Service) Current(_ context.Context, userID string) (models.BookingRecord, bool) {
	return s.store.Get(userID)
}

// Book creates (or recreates) an active booking of the given quantity.
func (s *Service) Book(ctx context.Context, userID string, identity models.Identity, sets int) (models.BookingRecord, string, error) {
	if sets <= 0 {
		return models.BookingRecord{}, "", ErrNonPositiveSets
	}

	ts := s.timestamp()
	rec := models.BookingRecord{
		Username: identity.Username,
		FullName: identity.FullName,
		Sets:     sets,
		Status:   models.StatusActive,
	}
	s.store.Apply(userID, rec, models.LogEntry{
		Timestamp: ts,
		UserID:    userID,
		Username:  identity.Username,
		FullName:  identity.FullName,
		Change:    "+" + strconv.Itoa(sets),
		Total:     sets,
		Status:    models.LogBooked,
	})
	metrics.IncBookingCreated()
	s.logger.Info().Str("user_id", userID).Int("sets", sets).Msg("booking created")

	s.notifier.BookingCreated(ctx, CreatedEvent{UserID: userID, Identity: identity, Sets: sets, Timestamp: ts})
	return rec, ts, nil
}

// EditResult reports the quantities around a successful edit.
type EditResult struct {
	Before    int
	After     int
	Timestamp string
}

// Edit applies a signed delta to an active booking. A delta that would take
// the total below zero is rejected with no mutation at all. A zero delta is
// accepted and logged as a no-op edit.
func (s *Service) Edit(ctx context.Context, userID string, identity models.Identity, delta int) (EditResult, error) {
	rec, ok := s.store.Get(userID)
	if !ok || !rec.IsActive() {
		return EditResult{}, ErrNoActiveBooking
	}

	before := rec.Sets
	newTotal := before + delta
	if newTotal < 0 {
		return EditResult{}, ErrNegativeTotal
	}

	ts := s.timestamp()
	rec.Sets = newTotal
	s.store.Apply(userID, rec, models.LogEntry{
		Timestamp: ts,
		UserID:    userID,
		Username:  identity.Username,
		FullName:  identity.FullName,
		Change:    models.FormatChange(delta),
		Total:     newTotal,
		Status:    models.LogEdited,
	})
	metrics.IncBookingEdited()
	s.logger.Info().Str("user_id", userID).Int("before", before).Int("after", newTotal).Msg("booking edited")

	s.notifier.BookingEdited(ctx, EditEvent{UserID: userID, Identity: identity, Before: before, After: newTotal, Timestamp: ts})
	return EditResult{Before: before, After: newTotal, Timestamp: ts}, nil
}

// CancelResult reports the quantity released by a cancellation.
type CancelResult struct {
	Sets      int
	Timestamp string
}

// Cancel closes an active booking, zeroing the quantity and keeping the
// pre-cancel quantity on the record.
func (s *Service) Cancel(ctx context.Context, userID string, identity models.Identity) (CancelResult, error) {
	rec, ok := s.store.Get(userID)
	if !ok || !rec.IsActive() {
		return CancelResult{}, ErrNoActiveBooking
	}

	prev := rec.Sets
	ts := s.timestamp()
	rec.Status = models.StatusCancelled
	rec.SetsBeforeCancel = prev
	rec.Sets = 0
	s.store.Apply(userID, rec, models.LogEntry{
		Timestamp: ts,
		UserID:    userID,
		Username:  identity.Username,
		FullName:  identity.FullName,
		Change:    "-" + strconv.Itoa(prev),
		Total:     0,
		Status:    models.LogCancelled,
	})
	metrics.IncBookingCancelled()
	s.logger.Info().Str("user_id", userID).Int("sets", prev).Msg("booking cancelled")

	s.notifier.BookingCancelled(ctx, CancelEvent{UserID: userID, Identity: identity, Sets: prev, Timestamp: ts})
	return CancelResult{Sets: prev, Timestamp: ts}, nil
}

// ResetAll wipes every record and the whole log. Irreversible.
func (s *Service) ResetAll(_ context.Context) {
	s.store.Reset()
	metrics.IncReset()
	s.logger.Info().Msg("all booking data reset")
}

// ActiveBooking is one active row of the summary.
type ActiveBooking struct {
	UserID   string
	Username string
	FullName string
	Sets     int
}

// CancelledBooking is one cancelled row of the summary.
type CancelledBooking struct {
	UserID           string
	Username         string
	FullName         string
	SetsBeforeCancel int
}

// Summary partitions all records into active and cancelled bookings.
type Summary struct {
	Active          []ActiveBooking
	Cancelled       []CancelledBooking
	TotalActiveSets int
}

// Summarize builds the admin summary. Read-only; rows follow record
// insertion order.
func (s *Service) Summarize(_ context.Context) Summary {
	var sum Summary
	for _, ur := range s.store.Records() {
		rec := ur.Record
		if rec.IsActive() {
			sum.Active = append(sum.Active, ActiveBooking{
				UserID:   ur.UserID,
				Username: rec.Username,
				FullName: rec.FullName,
				Sets:     rec.Sets,
			})
			sum.TotalActiveSets += rec.Sets
			continue
		}
		sum.Cancelled = append(sum.Cancelled, CancelledBooking{
			UserID:           ur.UserID,
			Username:         rec.Username,
			FullName:         rec.FullName,
			SetsBeforeCancel: rec.SetsBeforeCancel,
		})
	}
	return sum
}

// FindByUsername resolves a stored username to its user ID. Matching is
// case-insensitive and exact; the first match in insertion order wins.
// Usernames are not unique by construction, so collisions resolve to the
// earliest booked user.
func (s *Service) FindByUsername(_ context.Context, username string) (string, models.BookingRecord, error) {
	want := strings.ToLower(strings.TrimSpace(username))
	for _, ur := range s.store.Records() {
		if ur.Record.Username != "" && strings.ToLower(ur.Record.Username) == want {
			return ur.UserID, ur.Record, nil
		}
	}
	return "", models.BookingRecord{}, ErrUserNotFound
}

// Snapshot exposes copies of the record set and log for export.
func (s *Service) Snapshot(_ context.Context) ([]storage.UserRecord, []models.LogEntry) {
	return s.store.Records(), s.store.Log()
}
