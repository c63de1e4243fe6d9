package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setbook/internal/models"
)

func testPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "booking_data.json"), filepath.Join(dir, "booking_logs.json")
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestOpenMissingFiles(t *testing.T) {
	dataPath, logPath := testPaths(t)

	s, err := Open(dataPath, logPath, nopLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Log())
}

func TestApplyAndReload(t *testing.T) {
	dataPath, logPath := testPaths(t)

	s, err := Open(dataPath, logPath, nopLogger())
	require.NoError(t, err)

	rec := models.BookingRecord{
		Username: "@alice",
		FullName: "Alice",
		Sets:     5,
		Status:   models.StatusActive,
	}
	entry := models.LogEntry{
		Timestamp: "2025-01-01 10:00:00",
		UserID:    "100",
		Username:  "@alice",
		FullName:  "Alice",
		Change:    "+5",
		Total:     5,
		Status:    models.LogBooked,
	}
	s.Apply("100", rec, entry)

	got, ok := s.Get("100")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	// Reopen from disk and check both documents survived.
	reopened, err := Open(dataPath, logPath, nopLogger())
	require.NoError(t, err)
	got, ok = reopened.Get("100")
	require.True(t, ok)
	assert.Equal(t, rec, got)
	require.Len(t, reopened.Log(), 1)
	assert.Equal(t, entry, reopened.Log()[0])
}

func TestRecordsKeepInsertionOrder(t *testing.T) {
	dataPath, logPath := testPaths(t)

	s, err := Open(dataPath, logPath, nopLogger())
	require.NoError(t, err)

	// Insert in non-lexicographic order on purpose.
	s.Apply("200", models.BookingRecord{FullName: "Bob", Sets: 2, Status: models.StatusActive},
		models.LogEntry{UserID: "200", Change: "+2", Total: 2, Status: models.LogBooked})
	s.Apply("100", models.BookingRecord{FullName: "Alice", Sets: 1, Status: models.StatusActive},
		models.LogEntry{UserID: "100", Change: "+1", Total: 1, Status: models.LogBooked})

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "200", records[0].UserID)
	assert.Equal(t, "100", records[1].UserID)

	// After a reload the order is rebuilt from the log.
	reopened, err := Open(dataPath, logPath, nopLogger())
	require.NoError(t, err)
	records = reopened.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "200", records[0].UserID)
	assert.Equal(t, "100", records[1].UserID)
}

func TestReset(t *testing.T) {
	dataPath, logPath := testPaths(t)

	s, err := Open(dataPath, logPath, nopLogger())
	require.NoError(t, err)
	s.Apply("100", models.BookingRecord{Sets: 3, Status: models.StatusActive},
		models.LogEntry{UserID: "100", Change: "+3", Total: 3, Status: models.LogBooked})

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Log())

	reopened, err := Open(dataPath, logPath, nopLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Len())
	assert.Empty(t, reopened.Log())
}

func TestApplySurvivesPersistFailure(t *testing.T) {
	// Point both documents at a directory that does not exist. The write
	// fails, but the in-memory mutation must stand.
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	s, err := Open(filepath.Join(missing, "data.json"), filepath.Join(missing, "logs.json"), nopLogger())
	require.NoError(t, err)

	s.Apply("100", models.BookingRecord{Sets: 5, Status: models.StatusActive},
		models.LogEntry{UserID: "100", Change: "+5", Total: 5, Status: models.LogBooked})

	got, ok := s.Get("100")
	require.True(t, ok)
	assert.Equal(t, 5, got.Sets)
	require.Len(t, s.Log(), 1)

	_, statErr := os.Stat(filepath.Join(missing, "data.json"))
	assert.True(t, os.IsNotExist(statErr))
}
