package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an idle flow survives.
const DefaultTTL = 30 * time.Minute

// Store keeps per-handle flow state in memory. State is lost on restart.
//
// Callers serialize work for one handle with Lock; Get and Save hand out
// copies, so a flow only changes when the caller commits it.
type Store struct {
	mu     sync.Mutex
	states map[string]*State
	locks  map[string]*keyLock
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a store whose flows expire after ttl of inactivity.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		states: make(map[string]*State),
		locks:  make(map[string]*keyLock),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Lock blocks until the caller holds the handle's lock and returns the
// function that releases it.
func (s *Store) Lock(handle string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[handle]
	if !ok {
		l = &keyLock{}
		s.locks[handle] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, handle)
		}
		s.mu.Unlock()
	}
}

// Get returns a copy of the handle's live flow. An expired flow is
// discarded and reported once as ErrExpired.
func (s *Store) Get(handle string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[handle]
	if !ok {
		return nil, ErrNoSession
	}
	if s.expired(st) {
		delete(s.states, handle)
		return nil, ErrExpired
	}
	return st.Clone(), nil
}

// Begin starts a flow for handle, replacing any flow already in progress.
func (s *Store) Begin(handle string, flow Flow, first Step) *State {
	now := s.now()
	st := &State{
		ID:        uuid.NewString(),
		Handle:    handle,
		Flow:      flow,
		Step:      first,
		StartedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	if prev, ok := s.states[handle]; ok {
		s.logger.Debug("flow replaced", "handle", handle, "from", prev.Flow, "to", flow)
	}
	s.states[handle] = st
	s.mu.Unlock()

	return st.Clone()
}

// Save commits an updated copy of a flow. A copy whose flow was replaced
// or ended in the meantime is dropped and Save reports false.
func (s *Store) Save(st *State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.states[st.Handle]
	if !ok || cur.ID != st.ID {
		return false
	}
	c := st.Clone()
	c.UpdatedAt = s.now()
	s.states[st.Handle] = c
	return true
}

// End discards the handle's flow, if any.
func (s *Store) End(handle string) {
	s.mu.Lock()
	delete(s.states, handle)
	s.mu.Unlock()
}

// Len returns the number of stored flows, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Sweep discards expired flows and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for handle, st := range s.states {
		if s.expired(st) {
			delete(s.states, handle)
			n++
		}
	}
	return n
}

// Run sweeps expired flows every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("expired flows swept", "count", n)
			}
		}
	}
}

func (s *Store) expired(st *State) bool {
	return s.now().Sub(st.UpdatedAt) > s.ttl
}
