package dialogue

import (
	"context"
	"errors"
	"sync"

	"tourbot/models"
)

var ErrInvalidID = errors.New("conversation id is empty")

// Store keeps one ConversationState per conversation id with atomic
// per-key updates.
type Store interface {
	// Get returns a copy of the state, creating it on first contact.
	Get(ctx context.Context, id string) (*models.ConversationState, error)
	// Update runs fn on a copy of the state while holding the key's lock.
	// The copy replaces the stored state only when fn returns nil.
	Update(ctx context.Context, id string, fn func(st *models.ConversationState) error) error
	// Replace overwrites the state for st.ConversationID.
	Replace(ctx context.Context, st *models.ConversationState) error
}

type memoryEntry struct {
	lock  chan struct{}
	state *models.ConversationState
}

// MemoryStore is an in-process Store. States live until the process exits.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) entry(id string) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &memoryEntry{
			lock:  make(chan struct{}, 1),
			state: models.NewConversationState(id),
		}
		s.entries[id] = e
	}
	return e
}

// acquire takes the per-key lock or gives up when ctx ends.
func (e *memoryEntry) acquire(ctx context.Context) error {
	select {
	case e.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *memoryEntry) release() { <-e.lock }

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.ConversationState, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	e := s.entry(id)
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.release()
	return e.state.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn func(st *models.ConversationState) error) error {
	if id == "" {
		return ErrInvalidID
	}
	e := s.entry(id)
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	working := e.state.Clone()
	if err := fn(working); err != nil {
		return err
	}
	e.state = working
	return nil
}

func (s *MemoryStore) Replace(ctx context.Context, st *models.ConversationState) error {
	if st == nil || st.ConversationID == "" {
		return ErrInvalidID
	}
	e := s.entry(st.ConversationID)
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()
	e.state = st.Clone()
	return nil
}

// Len reports how many conversations are held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
