package storage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pathforge/api/internal/model"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// ArtifactStore writes a job's blobs and then its index record. A record is only
// written after every blob it points to exists, so readers never observe a
// pointer to a missing blob for a job written by this store.
type ArtifactStore struct {
	blobs BlobStore
	index IndexStore
	now   func() time.Time
}

func NewArtifactStore(blobs BlobStore, index IndexStore) *ArtifactStore {
	return &ArtifactStore{
		blobs: blobs,
		index: index,
		now:   time.Now,
	}
}

// WithClock overrides the time source used to stamp updatedAt
func (s *ArtifactStore) WithClock(now func() time.Time) *ArtifactStore {
	s.now = now
	return s
}

type blobWrite struct {
	name        string
	content     []byte
	contentType string
	assign      func(rec *model.IndexRecord, key string)
}

// Put persists all artifacts of a job and returns the index record written.
// Nothing is indexed if any blob write fails.
func (s *ArtifactStore) Put(ctx context.Context, job *model.Job, artifacts *model.Artifacts) (*model.IndexRecord, error) {
	if job == nil || job.ID == "" {
		return nil, fmt.Errorf("job id is required")
	}
	if artifacts == nil {
		artifacts = &model.Artifacts{}
	}

	rec := model.IndexRecord{
		JobID:      job.ID,
		Status:     job.Status,
		CreatedAt:  model.FormatTimestamp(job.CreatedAt),
		PointCount: job.PointCount,
		RobotModel: job.RobotModel,
		SourceID:   job.SourceID,
	}

	writes := []blobWrite{
		{
			name:        model.ArtifactRaw,
			content:     artifacts.Raw,
			contentType: contentTypeJSON,
			assign:      func(r *model.IndexRecord, key string) { r.RawKey = key },
		},
	}
	if artifacts.Path != nil {
		writes = append(writes, blobWrite{
			name:        model.ArtifactPath,
			content:     artifacts.Path,
			contentType: contentTypeJSON,
			assign:      func(r *model.IndexRecord, key string) { r.PathKey = key },
		})
	}
	for _, d := range model.Dialects {
		if text, ok := artifacts.Programs[d]; ok {
			writes = append(writes, programWrite(d, false, text))
		}
		if text := artifacts.Refined[d]; text != "" {
			writes = append(writes, programWrite(d, true, text))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range writes {
		key := ObjectKey(job.ID, w.name)
		g.Go(func() error {
			if err := s.blobs.Put(gctx, key, w.content, w.contentType); err != nil {
				return fmt.Errorf("write %s: %w", w.name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, w := range writes {
		w.assign(&rec, ObjectKey(job.ID, w.name))
	}
	rec.UpdatedAt = model.FormatTimestamp(s.now())

	if err := s.index.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("write index record: %w", err)
	}
	return &rec, nil
}

func programWrite(d model.Dialect, refined bool, text string) blobWrite {
	return blobWrite{
		name:        model.ProgramArtifact(d, refined),
		content:     []byte(text),
		contentType: contentTypeText,
		assign:      func(r *model.IndexRecord, key string) { r.SetProgramKey(d, refined, key) },
	}
}

// GetLatest returns the record with the greatest updatedAt, or ErrNotFound
func (s *ArtifactStore) GetLatest(ctx context.Context) (*model.IndexRecord, error) {
	records, err := s.index.List(ctx)
	if err != nil {
		return nil, err
	}
	latest, ok := SelectLatest(records)
	if !ok {
		return nil, ErrNotFound
	}
	return &latest, nil
}

// Fetch reads a blob by its full key
func (s *ArtifactStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	return s.blobs.Get(ctx, key)
}
