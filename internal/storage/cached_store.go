package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedBlobStore fronts a BlobStore with an LRU cache. Artifacts are immutable,
// so entries never need invalidation.
type CachedBlobStore struct {
	origin BlobStore
	cache  *lru.Cache[string, []byte]
}

func NewCachedBlobStore(origin BlobStore, entries int) (*CachedBlobStore, error) {
	if origin == nil {
		return nil, fmt.Errorf("origin store is nil")
	}
	cache, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("init blob cache: %w", err)
	}
	return &CachedBlobStore{origin: origin, cache: cache}, nil
}

func (s *CachedBlobStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if err := s.origin.Put(ctx, key, content, contentType); err != nil {
		return err
	}
	s.cache.Add(key, append([]byte(nil), content...))
	return nil
}

func (s *CachedBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if content, ok := s.cache.Get(key); ok {
		return append([]byte(nil), content...), nil
	}
	content, err := s.origin.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, append([]byte(nil), content...))
	return content, nil
}

// Len returns the number of cached entries
func (s *CachedBlobStore) Len() int {
	return s.cache.Len()
}
