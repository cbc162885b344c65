// Package store holds the single source of truth for a voicecast session.
//
// All mutations go through Dispatch, which applies an Action with Reduce under
// a lock so that concurrent step controllers never interleave partial updates.
package store

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Store is the concurrency-safe holder of State.
type Store struct {
	mu    sync.Mutex
	state State

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// New returns a store at the initial state for d.
func New(d Defaults) *Store {
	return &Store{
		state: Initial(d),
		subs:  make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and notifies subscribers with the committed state. When
// the transition replaces or clears the audio slot, the previous handle is
// released so that only the current audio stays reachable.
func (s *Store) Dispatch(a Action) error {
	_, err := s.commit(a)
	return err
}

// Begin dispatches Begin{Step: step} and returns the session the started
// request belongs to.
func (s *Store) Begin(step Step) (uint64, error) {
	next, err := s.commit(Begin{Step: step})
	if err != nil {
		return 0, err
	}
	return next.Session, nil
}

func (s *Store) commit(a Action) (State, error) {
	s.mu.Lock()
	prev := s.state
	next, err := Reduce(prev, a)
	if err != nil {
		s.mu.Unlock()
		return prev, err
	}
	s.state = next
	s.mu.Unlock()

	if old := prev.Audio.Handle; old != nil && old != next.Audio.Handle {
		old.Release()
		logrus.WithField("url", old.URL()).Debug("released previous audio")
	}

	s.notify(next)
	return next, nil
}

// Subscribe registers fn to be called after each committed transition. Calls
// may arrive out of order under concurrent dispatch; compare State.Version.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Close releases the current audio. The store stays usable.
func (s *Store) Close() {
	s.mu.Lock()
	h := s.state.Audio.Handle
	s.mu.Unlock()
	h.Release()
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
