package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
)

// MemoryBackend is an in-process ports.Backend useful for tests and dry
// runs. Files live in a map guarded by an RWMutex; data is copied on the
// way in and out.
//
// Layout: key -> raw bytes
type MemoryBackend struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		files: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
	}
}

func (m *MemoryBackend) Name() string { return TypeMemory }

// ListFiles returns the sorted keys below dir.
func (m *MemoryBackend) ListFiles(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.files {
		if underDir(k, d) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// PrepareDirectory records dir; directories are implicit otherwise.
func (m *MemoryBackend) PrepareDirectory(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := cleanDir(dir)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.dirs[d] = struct{}{}
	m.mu.Unlock()
	return nil
}

// StoreFile reads src from local disk and stores a copy under dst.
func (m *MemoryBackend) StoreFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(dst)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	return m.Put(key, data)
}

// DeleteFile removes key if present.
func (m *MemoryBackend) DeleteFile(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.files, k)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// Put stores (or overwrites) data under key. The slice is copied.
func (m *MemoryBackend) Put(key string, data []byte) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.files[k] = cp
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the bytes stored under key or ErrNotFound.
func (m *MemoryBackend) Get(key string) ([]byte, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Prepared reports whether PrepareDirectory was called for dir.
func (m *MemoryBackend) Prepared(dir string) bool {
	d, err := cleanDir(dir)
	if err != nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.dirs[d]
	return ok
}

// Len returns the number of stored files.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
