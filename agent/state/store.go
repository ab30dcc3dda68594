package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrStateNotFound = errors.New("session not found")

const (
	defaultStoreTTL      = 24 * time.Hour
	defaultStoreCapacity = 256
)

// Store keeps finished sessions for inspection during the process lifetime.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
}

type StoreOption func(*MemoryStore)

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

func WithCapacity(n int) StoreOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

type storedSession struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore evicts sessions after the TTL, and the oldest one once capacity is reached.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]storedSession
	order    []string
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		items:    make(map[string]storedSession),
		ttl:      defaultStoreTTL,
		capacity: defaultStoreCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	if s.ttl > 0 && s.now().After(item.expiresAt) {
		s.removeLocked(sessionID)
		return nil, ErrStateNotFound
	}
	return item.session, nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sess.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[sess.ID]; !exists {
		s.order = append(s.order, sess.ID)
	}
	s.items[sess.ID] = storedSession{session: sess, expiresAt: s.now().Add(s.ttl)}
	for len(s.order) > s.capacity {
		s.removeLocked(s.order[0])
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sessionID == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(sessionID)
	return nil
}

func (s *MemoryStore) removeLocked(id string) {
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
