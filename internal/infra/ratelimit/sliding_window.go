// File: internal/infra/ratelimit/sliding_window.go
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const shardCount = 32

// SlidingWindow is an in-process, per-user sliding window admission counter.
// State is process-local and resets on restart. The registry is sharded so
// concurrent requests for different users rarely contend on the same lock.
type SlidingWindow struct {
	shards [shardCount]*shard

	now func() time.Time // overridable in tests
}

type shard struct {
	mu    sync.Mutex
	users map[int64][]time.Time
}

func NewSlidingWindow() *SlidingWindow {
	l := &SlidingWindow{now: time.Now}
	for i := range l.shards {
		l.shards[i] = &shard{users: make(map[int64][]time.Time)}
	}
	return l
}

func (l *SlidingWindow) shardFor(userID int64) *shard {
	return l.shards[uint64(userID)%shardCount]
}

// Allow admits the request if the user has made fewer than max requests in the
// window ending now. Denied requests are not recorded.
func (l *SlidingWindow) Allow(userID int64, max int, window time.Duration) bool {
	now := l.now()
	cutoff := now.Add(-window)

	s := l.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.users[userID]
	i := 0
	for i < len(q) && !q[i].After(cutoff) {
		i++
	}
	q = q[i:]

	if len(q) >= max {
		s.users[userID] = q
		return false
	}
	s.users[userID] = append(q, now)
	return true
}

// Run evicts users idle longer than maxIdle every interval, until ctx is
// cancelled. Without it the registry grows with every user ever seen.
func (l *SlidingWindow) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle(maxIdle)
		}
	}
}

func (l *SlidingWindow) evictIdle(maxIdle time.Duration) {
	cutoff := l.now().Add(-maxIdle)
	for _, s := range l.shards {
		s.mu.Lock()
		for id, q := range s.users {
			if len(q) == 0 || q[len(q)-1].Before(cutoff) {
				delete(s.users, id)
			}
		}
		s.mu.Unlock()
	}
}

// tracked reports how many users currently have recorded state (test hook).
func (l *SlidingWindow) tracked() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.users)
		s.mu.Unlock()
	}
	return n
}
