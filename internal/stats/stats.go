// Package stats keeps in-process counters of request outcomes for the ops
// endpoint. Recording is best effort and never blocks request handling for
// long; everything sits behind one mutex.
package stats

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the counters, shaped for JSON.
type Snapshot struct {
	Served         int64 `json:"served"`
	BadRequests    int64 `json:"bad_requests"`
	NotFound       int64 `json:"not_found"`
	RateLimited    int64 `json:"rate_limited"`
	InternalErrors int64 `json:"internal_errors"`
	BansStarted    int64 `json:"bans_started"`
	BytesSent      int64 `json:"bytes_sent"`
	ActiveConns    int64 `json:"active_conns"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
}

// Store accumulates counters from process start.
type Store struct {
	mu      sync.Mutex
	snap    Snapshot
	started time.Time
}

// New returns a Store whose uptime starts now.
func New() *Store {
	return &Store{started: time.Now()}
}

// RecordResponse counts one finished response by status code and adds the
// body bytes written.
func (s *Store) RecordResponse(status int, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch status {
	case 200:
		s.snap.Served++
	case 400:
		s.snap.BadRequests++
	case 404:
		s.snap.NotFound++
	case 429:
		s.snap.RateLimited++
	default:
		s.snap.InternalErrors++
	}
	s.snap.BytesSent += bytes
}

// RecordBan counts the start of one client lockout.
func (s *Store) RecordBan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.BansStarted++
}

// ConnOpened tracks one accepted connection.
func (s *Store) ConnOpened() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ActiveConns++
}

// ConnClosed tracks one finished connection.
func (s *Store) ConnClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ActiveConns--
}

// Snapshot returns a copy of the current counters.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.snap
	out.UptimeSeconds = int64(time.Since(s.started).Seconds())
	return out
}
