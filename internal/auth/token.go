// Package auth keeps the bearer token attached to backend requests.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoToken is returned by Load when nothing is stored.
var ErrNoToken = errors.New("auth: no token stored")

// Record is the persisted form of a token.
type Record struct {
	Token   string    `msgpack:"token"`
	SavedAt time.Time `msgpack:"saved_at"`
}

// TokenStore persists a single bearer token.
type TokenStore interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local TokenStore.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return Record{}, ErrNoToken
	}
	return *m.rec, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	if token == "" {
		return errors.New("auth: empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &Record{Token: token, SavedAt: time.Now()}
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}
