package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore — хранилище сессий в памяти процесса с ленивым
// вытеснением по TTL.
type MemoryStore struct {
	sessions sync.Map
	ttl      time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl}
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	val, ok := s.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		s.sessions.Delete(token)
		return nil, nil
	}
	return entry.session, nil
}

func (s *MemoryStore) Set(ctx context.Context, sess *Session) error {
	s.sessions.Store(sess.Token, &memoryEntry{
		session:   sess,
		expiresAt: time.Now().Add(s.ttl),
	})
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, token string) error {
	s.sessions.Delete(token)
	return nil
}
