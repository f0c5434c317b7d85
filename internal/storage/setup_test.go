package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/api/internal/config"
)

func TestSetupOnce_RetriesUntilSuccess(t *testing.T) {
	var s setupOnce
	calls := 0
	step := func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("connection refused")
		}
		return nil
	}

	ctx := context.Background()
	assert.Error(t, s.Do(ctx, step))
	assert.NoError(t, s.Do(ctx, step))
	assert.NoError(t, s.Do(ctx, step))
	assert.Equal(t, 2, calls)
}

func TestMinioStore_BucketCheckRecoversAfterOutage(t *testing.T) {
	var heads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && strings.Trim(r.URL.Path, "/") == "artifacts" {
			if heads.Add(1) == 1 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotImplemented)
	}))
	defer srv.Close()

	store, err := NewMinioStore(&config.StorageConfig{
		Endpoint:        strings.TrimPrefix(srv.URL, "http://"),
		AccessKeyID:     "test",
		SecretAccessKey: "test-secret",
		Bucket:          "artifacts",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, store.ensureBucket(ctx))
	require.NoError(t, store.ensureBucket(ctx))
	require.NoError(t, store.ensureBucket(ctx))
	assert.Equal(t, int32(2), heads.Load())
}
