package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu sync.Mutex
	c  Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c, nil
}

func (s *MemoryStore) Save(_ context.Context, c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = c
	return nil
}

func (s *MemoryStore) SetAccessToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c.RefreshToken == "" {
		return ErrNoSession
	}
	s.c.AccessToken = token
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = Credentials{}
	return nil
}
