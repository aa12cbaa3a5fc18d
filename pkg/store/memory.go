package store

import (
	"context"
	"sync"

	"github.com/hvacbridge/estimator/pkg/types"
)

// MemoryBackend keeps profiles in process memory
type MemoryBackend struct {
	mu       sync.RWMutex
	profiles map[string]types.Profile
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{profiles: make(map[string]types.Profile)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load(_ context.Context, userID string) (*types.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	profile.Catalog = append(types.Catalog{}, profile.Catalog...)
	return &profile, nil
}

func (m *MemoryBackend) Save(_ context.Context, profile *types.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *profile
	stored.Catalog = append(types.Catalog{}, profile.Catalog...)
	m.profiles[profile.UserID] = stored
	return nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() error { return nil }
