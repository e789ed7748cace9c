package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"flight-board/internal/repository"
)

// PreferenceRepository keeps each preference as an object named <prefix>/<key>.
type PreferenceRepository struct {
	objects Service
	bucket  string
	prefix  string
}

func NewPreferenceRepository(objects Service, bucket, keyPrefix string) *PreferenceRepository {
	return &PreferenceRepository{
		objects: objects,
		bucket:  bucket,
		prefix:  strings.Trim(keyPrefix, "/"),
	}
}

func (r *PreferenceRepository) Init(context.Context) error {
	if r.bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	return nil
}

func (r *PreferenceRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.objects.PutObject(ctx, r.bucket, r.objectKey(key), value)
}

func (r *PreferenceRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.objects.GetObject(ctx, r.bucket, r.objectKey(key))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, repository.ErrPreferenceNotFound
		}
		return nil, err
	}
	return data, nil
}

func (r *PreferenceRepository) Remove(ctx context.Context, key string) error {
	return r.objects.DeleteObject(ctx, r.bucket, r.objectKey(key))
}

func (r *PreferenceRepository) objectKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return path.Join(r.prefix, key)
}

var _ repository.PreferenceRepository = (*PreferenceRepository)(nil)
