package booking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setbook/internal/models"
	"setbook/internal/storage"
)

type recordingNotifier struct {
	created   []CreatedEvent
	edited    []EditEvent
	cancelled []CancelEvent
}

func (n *recordingNotifier) BookingCreated(_ context.Context, ev CreatedEvent) {
	n.created = append(n.created, ev)
}

func (n *recordingNotifier) BookingEdited(_ context.Context, ev EditEvent) {
	n.edited = append(n.edited, ev)
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, ev CancelEvent) {
	n.cancelled = append(n.cancelled, ev)
}

func newTestService(t *testing.T) (*Service, *recordingNotifier, *storage.Store) {
	t.Helper()
	dir := t.TempDir()
	logger := zerolog.Nop()
	store, err := storage.Open(filepath.Join(dir, "data.json"), filepath.Join(dir, "logs.json"), &logger)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewService(store, notifier, &logger)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, notifier, store
}

var alice = models.Identity{Username: "@alice", FullName: "Alice"}

func TestBookCreatesActiveRecord(t *testing.T) {
	svc, notifier, store := newTestService(t)
	ctx := context.Background()

	rec, ts, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, rec.Status)
	assert.Equal(t, 5, rec.Sets)
	assert.Equal(t, "2025-03-01 12:00:00", ts)

	entries := store.Log()
	require.Len(t, entries, 1)
	assert.Equal(t, "+5", entries[0].Change)
	assert.Equal(t, 5, entries[0].Total)
	assert.Equal(t, models.LogBooked, entries[0].Status)

	require.Len(t, notifier.created, 1)
	assert.Equal(t, 5, notifier.created[0].Sets)
	assert.Equal(t, alice, notifier.created[0].Identity)
}

func TestBookRejectsNonPositiveSets(t *testing.T) {
	svc, notifier, store := newTestService(t)
	ctx := context.Background()

	for _, sets := range []int{0, -3} {
		_, _, err := svc.Book(ctx, "200", alice, sets)
		assert.ErrorIs(t, err, ErrNonPositiveSets, "sets: %d", sets)
	}

	_, ok := store.Get("200")
	assert.False(t, ok, "no record may be created for a rejected booking")
	assert.Empty(t, store.Log())
	assert.Empty(t, notifier.created)
}

func TestEditAdjustsSets(t *testing.T) {
	svc, notifier, store := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)

	res, err := svc.Edit(ctx, "100", alice, -2)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Before)
	assert.Equal(t, 3, res.After)

	rec, ok := store.Get("100")
	require.True(t, ok)
	assert.Equal(t, 3, rec.Sets)

	entries := store.Log()
	require.Len(t, entries, 2)
	assert.Equal(t, "-2", entries[1].Change)
	assert.Equal(t, 3, entries[1].Total)
	assert.Equal(t, models.LogEdited, entries[1].Status)

	require.Len(t, notifier.edited, 1)
	assert.Equal(t, 5, notifier.edited[0].Before)
	assert.Equal(t, 3, notifier.edited[0].After)
}

func TestEditRejectsNegativeTotal(t *testing.T) {
	svc, notifier, store := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	_, err = svc.Edit(ctx, "100", alice, -2)
	require.NoError(t, err)

	// sets=3, delta=-10 must be rejected with no mutation at all.
	_, err = svc.Edit(ctx, "100", alice, -10)
	assert.ErrorIs(t, err, ErrNegativeTotal)

	rec, ok := store.Get("100")
	require.True(t, ok)
	assert.Equal(t, 3, rec.Sets)
	assert.Len(t, store.Log(), 2)
	assert.Len(t, notifier.edited, 1)
}

func TestEditRequiresActiveBooking(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Edit(ctx, "999", alice, 1)
	assert.ErrorIs(t, err, ErrNoActiveBooking)

	// Cancelled bookings cannot be edited either.
	_, _, err = svc.Book(ctx, "100", alice, 2)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, "100", alice)
	require.NoError(t, err)
	_, err = svc.Edit(ctx, "100", alice, 1)
	assert.ErrorIs(t, err, ErrNoActiveBooking)
}

func TestZeroDeltaEditIsLogged(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 4)
	require.NoError(t, err)

	res, err := svc.Edit(ctx, "100", alice, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, res.After)

	entries := store.Log()
	require.Len(t, entries, 2)
	assert.Equal(t, "0", entries[1].Change)
	assert.Equal(t, 4, entries[1].Total)
}

func TestCancelZeroesSetsAndKeepsSnapshot(t *testing.T) {
	svc, notifier, store := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	_, err = svc.Edit(ctx, "100", alice, -2)
	require.NoError(t, err)

	res, err := svc.Cancel(ctx, "100", alice)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sets)

	rec, ok := store.Get("100")
	require.True(t, ok)
	assert.Equal(t, models.StatusCancelled, rec.Status)
	assert.Equal(t, 0, rec.Sets)
	assert.Equal(t, 3, rec.SetsBeforeCancel)

	entries := store.Log()
	require.Len(t, entries, 3)
	assert.Equal(t, "-3", entries[2].Change)
	assert.Equal(t, 0, entries[2].Total)
	assert.Equal(t, models.LogCancelled, entries[2].Status)

	require.Len(t, notifier.cancelled, 1)
	assert.Equal(t, 3, notifier.cancelled[0].Sets)

	_, err = svc.Cancel(ctx, "100", alice)
	assert.ErrorIs(t, err, ErrNoActiveBooking)
}

func TestRebookAfterCancel(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, "100", alice)
	require.NoError(t, err)

	rec, _, err := svc.Book(ctx, "100", alice, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, rec.Status)
	assert.Equal(t, 2, rec.Sets)
	assert.Equal(t, 0, rec.SetsBeforeCancel, "rebooking overwrites the cancelled record")
}

func TestSetsNeverGoNegative(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 2)
	require.NoError(t, err)

	deltas := []int{-1, -5, 3, -4, -1, -10}
	for _, d := range deltas {
		_, _ = svc.Edit(ctx, "100", alice, d)
		rec, ok := store.Get("100")
		require.True(t, ok)
		assert.GreaterOrEqual(t, rec.Sets, 0, "delta: %d", d)
	}
}

func TestEveryMutationAppendsMatchingLogEntry(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	_, err = svc.Edit(ctx, "100", alice, 2)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, "100", alice)
	require.NoError(t, err)

	entries := store.Log()
	require.Len(t, entries, 3)
	for i, entry := range entries {
		rec, _ := store.Get(entry.UserID)
		if i == len(entries)-1 {
			assert.Equal(t, rec.Sets, entry.Total, "last entry total matches the record")
		}
		assert.NotEmpty(t, entry.Timestamp, "entry %d", i)
	}
}

func TestSummarize(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	empty := svc.Summarize(ctx)
	assert.Empty(t, empty.Active)
	assert.Empty(t, empty.Cancelled)
	assert.Equal(t, 0, empty.TotalActiveSets)

	bob := models.Identity{Username: "@bob", FullName: "Bob"}
	carol := models.Identity{Username: "@carol", FullName: "Carol"}
	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	_, _, err = svc.Book(ctx, "200", bob, 3)
	require.NoError(t, err)
	_, _, err = svc.Book(ctx, "300", carol, 2)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, "200", bob)
	require.NoError(t, err)

	sum := svc.Summarize(ctx)
	require.Len(t, sum.Active, 2)
	assert.Equal(t, "100", sum.Active[0].UserID)
	assert.Equal(t, "300", sum.Active[1].UserID)
	assert.Equal(t, 7, sum.TotalActiveSets)

	require.Len(t, sum.Cancelled, 1)
	assert.Equal(t, "200", sum.Cancelled[0].UserID)
	assert.Equal(t, 3, sum.Cancelled[0].SetsBeforeCancel)
}

func TestResetAll(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	_, _, err = svc.Book(ctx, "200", models.Identity{Username: "@bob", FullName: "Bob"}, 3)
	require.NoError(t, err)

	svc.ResetAll(ctx)

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.Log())
	sum := svc.Summarize(ctx)
	assert.Empty(t, sum.Active)
	assert.Equal(t, 0, sum.TotalActiveSets)
}

func TestFindByUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Book(ctx, "100", alice, 5)
	require.NoError(t, err)
	_, _, err = svc.Book(ctx, "200", models.Identity{Username: "@Bob", FullName: "Bob"}, 3)
	require.NoError(t, err)

	userID, rec, err := svc.FindByUsername(ctx, "@bob")
	require.NoError(t, err)
	assert.Equal(t, "200", userID)
	assert.Equal(t, "@Bob", rec.Username)

	_, _, err = svc.FindByUsername(ctx, "@nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindByUsernameFirstMatchWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	shared := models.Identity{Username: "@dup", FullName: "First"}
	_, _, err := svc.Book(ctx, "100", shared, 1)
	require.NoError(t, err)
	_, _, err = svc.Book(ctx, "200", models.Identity{Username: "@DUP", FullName: "Second"}, 2)
	require.NoError(t, err)

	userID, _, err := svc.FindByUsername(ctx, "@dup")
	require.NoError(t, err)
	assert.Equal(t, "100", userID)
}
