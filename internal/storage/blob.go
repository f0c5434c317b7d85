// Package storage persists job artifacts as immutable blobs and keeps one index
// record per job pointing at them.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a blob or index record does not exist
var ErrNotFound = errors.New("artifact not found")

// BlobStore stores immutable artifact content addressed by key
type BlobStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// ObjectKey builds the `{jobId}/{artifactName}` address of an artifact
func ObjectKey(jobID, name string) string {
	return strings.TrimSpace(jobID) + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("key is required")
	}
	return nil
}
