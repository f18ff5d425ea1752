package session

import "sync"

// MemoryStore keeps the session in memory only. It backs tests and the
// --no-persist console mode where nothing should touch disk.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *CurrentUser
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryStore) SetCurrentUser(user *CurrentUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
		return nil
	}
	copied := *user
	s.user = &copied
	return nil
}

func (s *MemoryStore) CurrentUser() *CurrentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

func (s *MemoryStore) SetSession(token string, user *CurrentUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	copied := *user
	s.user = &copied
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}
