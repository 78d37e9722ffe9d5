package storage

import (
	"context"
	"errors"
	"sync"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
)

var _ applogistics.SnapshotArchive = (*MemoryArchive)(nil)

// MemoryArchive keeps archived files in process memory. It is used when no
// bucket is configured; nothing survives a restart, so every file still on
// the SFTP server is processed again after one.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive creates an empty archive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

// Exists reports whether key was stored
func (a *MemoryArchive) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("archive key is required")
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.objects[key]
	return ok, nil
}

// Put stores a copy of body
func (a *MemoryArchive) Put(_ context.Context, key string, body []byte) error {
	if key == "" {
		return errors.New("archive key is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), body...)
	return nil
}

// Get returns the stored body
func (a *MemoryArchive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	body, ok := a.objects[key]
	return body, ok
}
