package conversation

import (
	"context"
	"sync"
	"time"
)

// Store keeps conversations for the lifetime of a page session. Update runs
// fn on the current state and saves the result atomically; when fn fails
// nothing is saved.
type Store interface {
	Create(ctx context.Context, c *Conversation) error
	Get(ctx context.Context, id string) (*Conversation, error)
	Update(ctx context.Context, id string, fn func(c *Conversation) error) (*Conversation, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	conv      *Conversation
	expiresAt time.Time
}

// MemoryStore is the single-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
	}
}

func (s *MemoryStore) Create(ctx context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[c.ID] = &memoryEntry{conv: c.Clone(), expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.conv.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(c *Conversation) error) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	working := e.conv.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	e.conv = working
	e.expiresAt = time.Now().Add(s.ttl)
	return working.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

// lookup expects s.mu to be held.
func (s *MemoryStore) lookup(id string) (*memoryEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, ErrNotFound
	}
	return e, nil
}
