package browser

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pending represents an outstanding code request awaiting its callback.
type Pending struct {
	ID          string
	State       string
	Verifier    string
	RedirectURI string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (p *Pending) expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// pendingStore keeps requests by state until their callback arrives, then by
// code until the code is exchanged.
type pendingStore struct {
	mu      sync.Mutex
	byState map[string]*Pending
	byCode  map[string]*Pending
}

func newPendingStore() *pendingStore {
	return &pendingStore{
		byState: map[string]*Pending{},
		byCode:  map[string]*Pending{},
	}
}

func (s *pendingStore) put(state, verifier, redirectURI string, ttl time.Duration) *Pending {
	now := time.Now()
	p := &Pending{
		ID:          uuid.NewString(),
		State:       state,
		Verifier:    verifier,
		RedirectURI: redirectURI,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evict(now)
	s.byState[state] = p
	return p
}

// complete removes the request for state; when code is set the request is kept
// for exchange.
func (s *pendingStore) complete(state, code string) (*Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byState[state]
	if !ok {
		return nil, false
	}
	delete(s.byState, state)
	if p.expired(time.Now()) {
		return nil, false
	}
	if code != "" {
		s.byCode[code] = p
	}
	return p, true
}

func (s *pendingStore) cancel(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byState, state)
}

// clear drops every request still awaiting its callback
func (s *pendingStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byState = map[string]*Pending{}
}

func (s *pendingStore) takeCode(code string) (*Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byCode[code]
	delete(s.byCode, code)
	return p, ok
}

func (s *pendingStore) evict(now time.Time) {
	for state, p := range s.byState {
		if p.expired(now) {
			delete(s.byState, state)
		}
	}
	for code, p := range s.byCode {
		if p.expired(now) {
			delete(s.byCode, code)
		}
	}
}

func (s *pendingStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byState)
}
