package bot

import (
	"sync"

	"setbook/internal/models"
)

type sessionAction string

const (
	actionBookQuantity  sessionAction = "book_quantity"
	actionEditDelta     sessionAction = "edit_delta"
	actionCancelConfirm sessionAction = "cancel_confirm"
	actionResetConfirm  sessionAction = "reset_confirm"
)

// session marks a pending multi-step interaction awaiting a follow-up input.
// Sets carries the pre-cancel quantity for the cancel confirmation flow.
type session struct {
	Action   sessionAction
	Identity models.Identity
	Sets     int
}

// sessionStore holds at most one session per user. Sessions are transient:
// lost on restart, which the router reports as an expired session.
type sessionStore struct {
	mu sync.Mutex
	m  map[int64]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[int64]session)}
}

// begin starts a session, silently discarding any prior one for the user.
func (s *sessionStore) begin(userID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

func (s *sessionStore) get(userID int64) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	return sess, ok
}

func (s *sessionStore) end(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
