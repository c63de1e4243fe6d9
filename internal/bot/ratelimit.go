package bot

import (
	"sync"

	"golang.org/x/time/rate"
)

// userLimiters throttles inbound updates per user so one chat cannot starve
// the single-writer mutation stream.
type userLimiters struct {
	mu    sync.Mutex
	m     map[int64]*rate.Limiter
	limit rate.Limit
	burst int
}

func newUserLimiters(perMinute, burst int) *userLimiters {
	return &userLimiters{
		m:     make(map[int64]*rate.Limiter),
		limit: rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
	}
}

func (u *userLimiters) allow(userID int64) bool {
	u.mu.Lock()
	l, ok := u.m[userID]
	if !ok {
		l = rate.NewLimiter(u.limit, u.burst)
		u.m[userID] = l
	}
	u.mu.Unlock()
	return l.Allow()
}
