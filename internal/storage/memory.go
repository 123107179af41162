package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/mockapi/pkg/store"
)

type memoryDoc struct {
	data      []byte
	expiresAt time.Time // zero means never
}

// MemoryStore is a thread-safe in-memory implementation of store.DocumentStore.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
	now  func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]memoryDoc),
		now:  time.Now,
	}
}

// Get retrieves a document by key. Returns store.ErrNotFound if absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok || s.expired(doc) {
		return nil, store.ErrNotFound
	}
	return cloneBytes(doc.data), nil
}

// Put stores or replaces a document.
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	return s.PutWithTTL(ctx, key, data, 0)
}

// PutWithTTL stores a document that disappears after ttl. A ttl <= 0 never expires.
func (s *MemoryStore) PutWithTTL(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	doc := memoryDoc{data: cloneBytes(data)}
	if ttl > 0 {
		doc.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = doc
	return nil
}

// Delete removes a document by key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, exists := s.docs[key]
	if !exists {
		return store.ErrNotFound
	}
	delete(s.docs, key)
	if s.expired(doc) {
		return store.ErrNotFound
	}
	return nil
}

// List returns the sorted keys starting with prefix.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for k, doc := range s.docs {
		if strings.HasPrefix(k, prefix) && !s.expired(doc) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Count returns the number of live documents.
func (s *MemoryStore) Count() int {
	keys, _ := s.List(context.Background(), "")
	return len(keys)
}

func (s *MemoryStore) expired(doc memoryDoc) bool {
	return !doc.expiresAt.IsZero() && !s.now().Before(doc.expiresAt)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// Ensure MemoryStore implements the store interfaces.
var (
	_ store.DocumentStore = (*MemoryStore)(nil)
	_ store.ExpiringStore = (*MemoryStore)(nil)
)
