package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

// ErrStoreFull is returned by Create once the session limit is reached.
var ErrStoreFull = stderrors.New("session limit reached")

// Store keeps independent sessions in memory. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
	opts     Options
}

// NewStore creates a store that opens sessions with opts. limit <= 0 means
// unlimited.
func NewStore(opts Options, limit int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		max:      limit,
		opts:     opts.withDefaults(),
	}
}

// Create builds a plan for units and registers a new session for it.
func (st *Store) Create(ctx context.Context, units []plan.Unit) (*Session, error) {
	if st.max > 0 && st.Len() >= st.max {
		return nil, fmt.Errorf("%w (%d)", ErrStoreFull, st.max)
	}

	s, err := New(ctx, units, st.opts)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.max > 0 && len(st.sessions) >= st.max {
		s.Cancel()
		return nil, fmt.Errorf("%w (%d)", ErrStoreFull, st.max)
	}
	st.sessions[s.ID()] = s
	st.updateGauge()
	return s, nil
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.NewSessionNotFoundError(id)
	}
	return s, nil
}

// Delete cancels and forgets a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
		st.updateGauge()
	}
	st.mu.Unlock()

	if !ok {
		return errors.NewSessionNotFoundError(id)
	}
	s.Cancel()
	return nil
}

// List returns all sessions, oldest first.
func (st *Store) List() []*Session {
	st.mu.RLock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].createdAt.Before(out[j].createdAt)
		}
		return out[i].id < out[j].id
	})
	return out
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close cancels every session.
func (st *Store) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.updateGauge()
	st.mu.Unlock()

	for _, s := range sessions {
		s.Cancel()
	}
}

func (st *Store) updateGauge() {
	if st.opts.Metrics != nil {
		st.opts.Metrics.ActiveSessions.Set(float64(len(st.sessions)))
	}
}
