// Package storage keeps the booking records and the mutation log in two
// flat JSON documents, rewritten wholesale on every mutation.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"setbook/internal/models"
)

// UserRecord pairs a record with the user it belongs to, for ordered iteration.
type UserRecord struct {
	UserID string
	Record models.BookingRecord
}

// Store holds all booking records plus the append-only log behind a single
// write lock. Read-modify-write cycles across users are serialized here:
// every mutation rewrites the full record set and log on disk.
type Store struct {
	mu       sync.Mutex
	dataPath string
	logPath  string
	records  map[string]models.BookingRecord
	order    []string // insertion order of record keys
	log      []models.LogEntry
	logger   *zerolog.Logger
}

// Open loads both documents from disk. Missing files mean empty state.
// Iteration order of records is rebuilt from the log (first occurrence per
// user); records never seen in the log are appended in sorted key order.
func Open(dataPath, logPath string, logger *zerolog.Logger) (*Store, error) {
	s := &Store{
		dataPath: dataPath,
		logPath:  logPath,
		records:  make(map[string]models.BookingRecord),
		logger:   logger,
	}
	if err := loadJSON(dataPath, &s.records); err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if err := loadJSON(logPath, &s.log); err != nil {
		return nil, fmt.Errorf("load log: %w", err)
	}
	s.rebuildOrder()
	return s, nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) rebuildOrder() {
	seen := make(map[string]bool, len(s.records))
	s.order = s.order[:0]
	for _, entry := range s.log {
		if _, ok := s.records[entry.UserID]; ok && !seen[entry.UserID] {
			seen[entry.UserID] = true
			s.order = append(s.order, entry.UserID)
		}
	}
	var rest []string
	for id := range s.records {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	s.order = append(s.order, rest...)
}

// Get returns the record for a user, if any.
func (s *Store) Get(userID string) (models.BookingRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	return rec, ok
}

// Apply stores the record and appends the matching log entry as one unit,
// then persists both snapshots. A failed write is logged and the in-memory
// mutation stands; durability here is best effort.
func (s *Store) Apply(userID string, rec models.BookingRecord, entry models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[userID]; !ok {
		s.order = append(s.order, userID)
	}
	s.records[userID] = rec
	s.log = append(s.log, entry)
	s.persistLocked()
}

// Reset wipes all records and the log and persists the empty snapshots.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]models.BookingRecord)
	s.order = nil
	s.log = nil
	s.persistLocked()
}

// Records returns all records in insertion order.
func (s *Store) Records() []UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, UserRecord{UserID: id, Record: s.records[id]})
	}
	return out
}

// Log returns a copy of the mutation log.
func (s *Store) Log() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LogEntry(nil), s.log...)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) persistLocked() {
	if err := writeJSON(s.dataPath, s.records); err != nil {
		s.logger.Warn().Err(err).Str("path", s.dataPath).Msg("persist records failed")
	}
	if err := writeJSON(s.logPath, s.log); err != nil {
		s.logger.Warn().Err(err).Str("path", s.logPath).Msg("persist log failed")
	}
}

// writeJSON writes a document atomically: temp file, fsync, rename. A crash
// mid-write leaves the previous snapshot intact.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()
	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
