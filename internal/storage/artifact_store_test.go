package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/api/internal/model"
)

type failingBlobStore struct {
	*MemoryStore
	failOn string
}

func (f *failingBlobStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if strings.HasSuffix(key, f.failOn) {
		return errors.New("disk full")
	}
	return f.MemoryStore.Put(ctx, key, content, contentType)
}

// orderingIndex records whether every pointed-to blob existed when the index was written
type orderingIndex struct {
	*MemoryIndex
	blobs       *MemoryStore
	mu          sync.Mutex
	missingKeys []string
}

func (o *orderingIndex) Put(ctx context.Context, rec model.IndexRecord) error {
	o.mu.Lock()
	for _, key := range []string{rec.RawKey, rec.PathKey, rec.KarelKey, rec.KRLKey, rec.RapidKey, rec.KarelRefinedKey} {
		if key == "" {
			continue
		}
		if _, err := o.blobs.Get(ctx, key); err != nil {
			o.missingKeys = append(o.missingKeys, key)
		}
	}
	o.mu.Unlock()
	return o.MemoryIndex.Put(ctx, rec)
}

func sampleJob(id string, created time.Time) *model.Job {
	return &model.Job{
		ID:         id,
		Status:     model.JobStatusValid,
		CreatedAt:  created,
		PointCount: 2,
		SourceID:   "glove-01",
	}
}

func sampleArtifacts() *model.Artifacts {
	return &model.Artifacts{
		Raw:  []byte(`{"path_points":[]}`),
		Path: []byte(`{"points":[]}`),
		Programs: map[model.Dialect]string{
			model.DialectKAREL: "PROGRAM GESTURE\nEND GESTURE\n",
			model.DialectKRL:   "DEF GESTURE()\nEND\n",
			model.DialectRAPID: "MODULE GESTURE\nENDMODULE\n",
		},
		Refined: map[model.Dialect]string{
			model.DialectKAREL: "PROGRAM GESTURE\n-- refined\nEND GESTURE\n",
		},
	}
}

func TestArtifactStore_PutWritesBlobsAndIndex(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryStore()
	index := NewMemoryIndex()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewArtifactStore(blobs, index).WithClock(func() time.Time { return fixed })

	rec, err := store.Put(ctx, sampleJob("job-1", fixed), sampleArtifacts())
	require.NoError(t, err)

	assert.Equal(t, "job-1/iot_raw.json", rec.RawKey)
	assert.Equal(t, "job-1/path.json", rec.PathKey)
	assert.Equal(t, "job-1/karel.LS", rec.KarelKey)
	assert.Equal(t, "job-1/kuka.src", rec.KRLKey)
	assert.Equal(t, "job-1/rapid.mod", rec.RapidKey)
	assert.Equal(t, "job-1/karel.refined.LS", rec.KarelRefinedKey)
	assert.Empty(t, rec.KRLRefinedKey)
	assert.Empty(t, rec.RapidRefinedKey)
	assert.Equal(t, "2024-05-01T12:00:00.000000Z", rec.UpdatedAt)
	assert.Equal(t, 6, blobs.Len())

	content, err := store.Fetch(ctx, rec.KarelRefinedKey)
	require.NoError(t, err)
	assert.Contains(t, string(content), "refined")
}

func TestArtifactStore_IndexWrittenAfterBlobs(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryStore()
	index := &orderingIndex{MemoryIndex: NewMemoryIndex(), blobs: blobs}
	store := NewArtifactStore(blobs, index)

	_, err := store.Put(ctx, sampleJob("job-1", time.Now()), sampleArtifacts())
	require.NoError(t, err)
	assert.Empty(t, index.missingKeys)
}

func TestArtifactStore_BlobFailureSkipsIndex(t *testing.T) {
	ctx := context.Background()
	blobs := &failingBlobStore{MemoryStore: NewMemoryStore(), failOn: model.ArtifactKRL}
	index := NewMemoryIndex()
	store := NewArtifactStore(blobs, index)

	_, err := store.Put(ctx, sampleJob("job-1", time.Now()), sampleArtifacts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	records, err := index.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestArtifactStore_GetLatestPicksGreatestUpdatedAt(t *testing.T) {
	ctx := context.Background()
	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(1500 * time.Millisecond)

	now := t1
	store := NewArtifactStore(NewMemoryStore(), NewMemoryIndex()).WithClock(func() time.Time { return now })

	_, err := store.Put(ctx, sampleJob("job-b", t1), sampleArtifacts())
	require.NoError(t, err)
	now = t2
	_, err = store.Put(ctx, sampleJob("job-a", t2), sampleArtifacts())
	require.NoError(t, err)

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-a", latest.JobID)
}

func TestArtifactStore_GetLatestEmpty(t *testing.T) {
	store := NewArtifactStore(NewMemoryStore(), NewMemoryIndex())
	_, err := store.GetLatest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArtifactStore_FetchMissing(t *testing.T) {
	store := NewArtifactStore(NewMemoryStore(), NewMemoryIndex())

	_, err := store.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Fetch(context.Background(), "job-x/karel.LS")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectLatest(t *testing.T) {
	tests := []struct {
		name    string
		records []model.IndexRecord
		want    string
		found   bool
	}{
		{name: "empty", found: false},
		{
			name: "greatest timestamp wins",
			records: []model.IndexRecord{
				{JobID: "a", UpdatedAt: "2024-05-01T12:00:01.000000Z"},
				{JobID: "b", UpdatedAt: "2024-05-01T12:00:00.999999Z"},
			},
			want:  "a",
			found: true,
		},
		{
			name: "tie broken by job id",
			records: []model.IndexRecord{
				{JobID: "a", UpdatedAt: "2024-05-01T12:00:00.000000Z"},
				{JobID: "c", UpdatedAt: "2024-05-01T12:00:00.000000Z"},
				{JobID: "b", UpdatedAt: "2024-05-01T12:00:00.000000Z"},
			},
			want:  "c",
			found: true,
		},
		{
			name: "records without timestamp ignored",
			records: []model.IndexRecord{
				{JobID: "z"},
				{JobID: "a", UpdatedAt: "2024-05-01T12:00:00.000000Z"},
			},
			want:  "a",
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectLatest(tt.records)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.JobID)
		})
	}
}
