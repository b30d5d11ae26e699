package session

import (
	"context"
	"sync"
	"time"

	"github.com/ellp/mockapi/internal/auth"
)

type memoryEntry struct {
	userID  string
	expires time.Time
}

// MemoryStore mantém as tabelas em mapas locais ao processo.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[auth.TokenKind]map[string]memoryEntry
	now    func() time.Time
}

// NewMemoryStore cria store vazio.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock permite controlar o relógio usado na expiração.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		tables: newTables(),
		now:    now,
	}
}

func newTables() map[auth.TokenKind]map[string]memoryEntry {
	return map[auth.TokenKind]map[string]memoryEntry{
		auth.KindAccess:  {},
		auth.KindRefresh: {},
	}
}

func (s *MemoryStore) Save(_ context.Context, kind auth.TokenKind, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[kind]
	if !ok {
		table = map[string]memoryEntry{}
		s.tables[kind] = table
	}
	entry := memoryEntry{userID: userID}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	table[token] = entry
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, kind auth.TokenKind, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tables[kind][token]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expires.IsZero() && s.now().After(entry.expires) {
		delete(s.tables[kind], token)
		return "", ErrNotFound
	}
	return entry.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, kind auth.TokenKind, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tables[kind], token)
	return nil
}

func (s *MemoryStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = newTables()
	return nil
}
