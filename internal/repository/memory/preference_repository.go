package memory

import (
	"context"
	"sync"

	"flight-board/internal/repository"
)

// PreferenceRepository keeps preferences in process memory. Values are copied
// on the way in and out so callers cannot mutate stored bytes.
type PreferenceRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewPreferenceRepository() *PreferenceRepository {
	return &PreferenceRepository{values: make(map[string][]byte)}
}

func (r *PreferenceRepository) Init(context.Context) error {
	return nil
}

func (r *PreferenceRepository) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	r.mu.Lock()
	r.values[key] = cp
	r.mu.Unlock()
	return nil
}

func (r *PreferenceRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.values[key]
	if !ok {
		return nil, repository.ErrPreferenceNotFound
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (r *PreferenceRepository) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.values, key)
	r.mu.Unlock()
	return nil
}

// Has reports whether a value is stored under key.
func (r *PreferenceRepository) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.values[key]
	return ok
}
