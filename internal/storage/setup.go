package storage

import (
	"context"
	"sync"
)

// setupOnce runs a backend setup step until it first succeeds. Failed attempts
// are not remembered, so a backend that was briefly unreachable recovers on the
// next call.
type setupOnce struct {
	mu   sync.Mutex
	done bool
}

func (s *setupOnce) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	s.done = true
	return nil
}
