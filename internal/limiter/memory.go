package limiter

import (
	"context"
	"sync"
	"time"
)

type clientState struct {
	count       int64
	windowStart time.Time
	bannedUntil time.Time
	lastSeen    time.Time
}

// MemoryStore is the default in-process Store. Idle entries are dropped by
// the janitor so the map does not grow with every client ever seen.
type MemoryStore struct {
	mu      sync.Mutex
	clients map[string]*clientState
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clients: make(map[string]*clientState)}
}

// Incr implements Store.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[key]
	if !ok {
		c = &clientState{}
		s.clients[key] = c
	}

	// An in-flight request can reach Incr after a racing Ban landed; the
	// active ban must survive, so only a lapsed ban resets the window.
	if c.bannedUntil.After(now) {
		c.count++
		c.lastSeen = now
		return c.count, nil
	}

	if !c.bannedUntil.IsZero() || c.count == 0 || now.Sub(c.windowStart) >= window {
		c.count = 0
		c.windowStart = now
		c.bannedUntil = time.Time{}
	}
	c.count++
	c.lastSeen = now
	return c.count, nil
}

// Ban implements Store.
func (s *MemoryStore) Ban(_ context.Context, key string, penalty time.Duration, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[key]
	if !ok {
		c = &clientState{}
		s.clients[key] = c
	}
	c.bannedUntil = now.Add(penalty)
	c.count = 0
	c.lastSeen = now
	return nil
}

// Banned implements Store.
func (s *MemoryStore) Banned(_ context.Context, key string, now time.Time) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[key]
	if !ok || !c.bannedUntil.After(now) {
		return 0, false, nil
	}
	c.lastSeen = now
	return c.bannedUntil.Sub(now), true, nil
}

// Len reports how many clients are currently tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Sweep drops entries idle for longer than idleTTL. Banned clients are kept
// until the ban has lapsed, however quiet they are.
func (s *MemoryStore) Sweep(now time.Time, idleTTL time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.clients {
		if c.bannedUntil.After(now) {
			continue
		}
		if now.Sub(c.lastSeen) > idleTTL {
			delete(s.clients, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle entries every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval, idleTTL time.Duration) {
	if interval <= 0 || idleTTL <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(time.Now(), idleTTL)
			}
		}
	}()
}
