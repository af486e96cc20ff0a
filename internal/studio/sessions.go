package studio

import (
	"context"
	"sync"
	"time"
)

// Session owns one studio State. All transitions are serialised under its mutex, which gives
// each session the single-threaded event ordering of the browser it serves.
type Session struct {
	ID string

	mu         sync.Mutex
	state      State
	lastAccess time.Time
	tickets    uint64
}

// NewSession creates an empty session
func NewSession(id string) *Session {
	return &Session{ID: id, lastAccess: time.Now()}
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
	return s.state
}

// Dispatch reduces a against the current state and stores the result
func (s *Session) Dispatch(a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()

	next, err := Reduce(s.state, a)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

// StartGeneration issues a fresh ticket and marks it as the latest run
func (s *Session) StartGeneration() (uint64, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()

	s.tickets++
	next, _ := Reduce(s.state, GenerationStarted{Ticket: s.tickets})
	s.state = next
	return s.tickets, next
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Sessions is a concurrency-safe registry of studio sessions keyed by session id
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessions creates a registry; sessions idle for longer than ttl are dropped by Evict
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Get returns the session for id, creating it on first use
func (r *Sessions) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := NewSession(id)
	r.sessions[id] = s
	return s
}

// Lookup returns the session for id without creating it
func (r *Sessions) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict removes sessions idle since before now-ttl and returns how many were removed
func (r *Sessions) Evict(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor evicts idle sessions every interval until ctx is done
func (r *Sessions) RunJanitor(ctx context.Context, interval time.Duration, onEvict func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := r.Evict(now); removed > 0 && onEvict != nil {
				onEvict(removed)
			}
		}
	}
}
