package filerepository

import (
	"context"
	"sync"
)

// MemoryIndex is an in-process Index used when no metadata database is configured.
type MemoryIndex struct {
	mu    sync.RWMutex
	files map[string]StoredFile
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{files: make(map[string]StoredFile)}
}

func (m *MemoryIndex) Save(_ context.Context, f *StoredFile) error {
	m.mu.Lock()
	m.files[f.ID] = *f
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Find(_ context.Context, id string) (*StoredFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return &f, nil
}

func (m *MemoryIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.files, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many descriptors are indexed.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
