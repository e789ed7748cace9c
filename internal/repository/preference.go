package repository

import (
	"context"
	"errors"
)

// ErrPreferenceNotFound is returned by Get when no value is stored under the key.
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceRepository is a key-value store for locally persisted user preferences.
type PreferenceRepository interface {
	Init(ctx context.Context) error
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
