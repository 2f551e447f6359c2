package store

import (
	"sync"

	"lifescript/internal/util"
	"lifescript/pkg/domain"
)

// MemoryStore keeps credentials and user records in-process. It backs
// dev mode and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]domain.Credential // key: username
	users map[string]domain.User       // key: username
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		creds: make(map[string]domain.Credential),
		users: make(map[string]domain.User),
	}
}

// SaveCredential stores or replaces the credential for a username.
func (m *MemoryStore) SaveCredential(c domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[c.Username] = c
	return nil
}

// GetCredential looks up a credential by username.
func (m *MemoryStore) GetCredential(username string) (domain.Credential, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.creds[username]
	return c, ok, nil
}

// HasUsername checks if a credential exists for the username.
func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.creds[username]
	return ok, nil
}

// SaveUserRecord overwrites the full user record.
func (m *MemoryStore) SaveUserRecord(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Username] = u
	return nil
}

// GetUserRecord returns the user record for a username.
func (m *MemoryStore) GetUserRecord(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	return u, ok, nil
}

// MemorySessionStore holds the single active session in-process.
type MemorySessionStore struct {
	mu       sync.Mutex
	token    string
	username string
}

// NewMemorySessionStore builds an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// NewSession replaces any existing marker with a fresh token bound to
// username.
func (s *MemorySessionStore) NewSession(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = util.NewID()
	s.username = username
	return s.token, nil
}

// UsernameByToken resolves the token against the current marker.
func (s *MemorySessionStore) UsernameByToken(token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || token != s.token {
		return "", false, nil
	}
	return s.username, true, nil
}

// DeleteSession clears the marker if the token matches it.
func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == s.token {
		s.token = ""
		s.username = ""
	}
	return nil
}
