package session

import (
	"context"
	"sync"
)

// Storage is the durable backend for the persisted session blob.
// Load returns (nil, nil) when no blob has ever been written.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
	Delete(ctx context.Context) error
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	mu   sync.Mutex
	blob []byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// NewMemoryStorageWithBlob creates an in-memory storage pre-seeded with a blob.
func NewMemoryStorageWithBlob(blob []byte) *MemoryStorage {
	s := &MemoryStorage{}
	s.blob = append([]byte(nil), blob...)
	return s
}

// Load returns the stored blob, or nil when nothing was written.
func (s *MemoryStorage) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, nil
	}
	return append([]byte(nil), s.blob...), nil
}

// Save stores a copy of the blob.
func (s *MemoryStorage) Save(ctx context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	return nil
}

// Delete removes the stored blob.
func (s *MemoryStorage) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	return nil
}

// Ensure MemoryStorage implements Storage.
var _ Storage = (*MemoryStorage)(nil)
