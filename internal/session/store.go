package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a session ID has no live backing record.
var ErrNotFound = errors.New("session not found")

// Store persists sessions by ID. Records expire after the configured
// absolute lifetime regardless of activity.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Suitable for development
// and tests; production deployments use the Redis store.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]memoryRecord
	lifetime time.Duration
}

type memoryRecord struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore(lifetime time.Duration) *MemoryStore {
	return &MemoryStore{
		records:  map[string]memoryRecord{},
		lifetime: lifetime,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(rec.expiresAt) {
		delete(m.records, id)
		return nil, ErrNotFound
	}
	var s Session
	if err := json.Unmarshal(rec.data, &s); err != nil {
		delete(m.records, id)
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[s.ID] = memoryRecord{data: data, expiresAt: time.Now().Add(m.lifetime)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}
