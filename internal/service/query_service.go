package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/pathforge/api/internal/logging"
	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/internal/storage"
)

// LatestReader resolves the latest job and reads its blobs
type LatestReader interface {
	GetLatest(ctx context.Context) (*model.IndexRecord, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// QueryService answers the polled read endpoints. Every method returns a
// well-formed value; failures degrade to placeholders and are only logged.
type QueryService struct {
	store  LatestReader
	logger *zap.Logger
}

func NewQueryService(store LatestReader, logger *zap.Logger) *QueryService {
	logger = logging.OrNop(logger)
	return &QueryService{store: store, logger: logger}
}

func (s *QueryService) latest(ctx context.Context) (*model.IndexRecord, bool) {
	rec, err := s.store.GetLatest(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to resolve latest job", zap.Error(err))
		}
		return nil, false
	}
	return rec, true
}

// Status reports whether the latest job holds a valid path
func (s *QueryService) Status(ctx context.Context) model.StatusResponse {
	rec, ok := s.latest(ctx)
	if !ok {
		return model.StatusResponse{Valid: false, Message: model.MessageAwaitingData}
	}
	return model.StatusResponse{
		Valid:   rec.Status == model.JobStatusValid,
		Message: string(rec.Status),
	}
}

// Path returns the latest canonical path, always with a points array
func (s *QueryService) Path(ctx context.Context) model.PathResponse {
	empty := model.PathResponse{Path: model.EmptyPath()}

	rec, ok := s.latest(ctx)
	if !ok {
		return empty
	}
	data, err := s.store.Fetch(ctx, rec.PathKey)
	if err != nil {
		s.logger.Warn("failed to fetch path", zap.String("job_id", rec.JobID), zap.Error(err))
		return empty
	}

	var path model.Path
	if err := json.Unmarshal(data, &path); err != nil {
		s.logger.Warn("stored path is malformed", zap.String("job_id", rec.JobID), zap.Error(err))
		return empty
	}
	if path.Points == nil {
		path.Points = []model.Waypoint{}
	}
	return model.PathResponse{Path: path}
}

// Code returns the program text per dialect, preferring refined text. If the
// latest job lacks any base program pointer, every dialect gets the placeholder.
// Otherwise each dialect is resolved on its own.
func (s *QueryService) Code(ctx context.Context) model.CodeResponse {
	rec, ok := s.latest(ctx)
	if !ok {
		return model.PlaceholderCodeResponse()
	}
	for _, d := range model.Dialects {
		if rec.ProgramKey(d, false) == "" {
			return model.PlaceholderCodeResponse()
		}
	}

	var resp model.CodeResponse
	for _, d := range model.Dialects {
		resp.Set(d, s.program(ctx, rec, d))
	}
	return resp
}

func (s *QueryService) program(ctx context.Context, rec *model.IndexRecord, d model.Dialect) string {
	log := s.logger.With(zap.String("job_id", rec.JobID), zap.String("dialect", string(d)))

	if key := rec.ProgramKey(d, true); key != "" {
		data, err := s.store.Fetch(ctx, key)
		if err == nil && strings.TrimSpace(string(data)) != "" {
			return string(data)
		}
		log.Warn("refined program unavailable, using base", zap.Error(err))
	}

	data, err := s.store.Fetch(ctx, rec.ProgramKey(d, false))
	if err != nil {
		log.Warn("failed to fetch program", zap.Error(err))
		return model.PlaceholderCode
	}
	return string(data)
}
