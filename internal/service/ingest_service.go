package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/pathforge/api/internal/codegen"
	"github.com/pathforge/api/internal/logging"
	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/internal/normalizer"
	"github.com/pathforge/api/internal/refine"
)

const (
	TaskTypeIngest = "telemetry:ingest"
	QueueIngest    = "ingest"
)

// ArtifactWriter persists a job's artifacts and returns its index record
type ArtifactWriter interface {
	Put(ctx context.Context, job *model.Job, artifacts *model.Artifacts) (*model.IndexRecord, error)
}

// Notifier is told about every job that becomes the latest
type Notifier interface {
	BroadcastJob(rec *model.IndexRecord)
}

// IngestOptions configures the ingestion pipeline
type IngestOptions struct {
	ProgramName      string
	RapidVariant     model.RapidVariant
	ExpectedSourceID string
}

// IngestService turns telemetry into a stored job: normalize, generate, refine, persist
type IngestService struct {
	store       ArtifactWriter
	refiner     refine.Refiner
	generators  []codegen.Generator
	asynqClient *asynq.Client
	notifier    Notifier
	logger      *zap.Logger
	opts        IngestOptions
	now         func() time.Time
}

// NewIngestService creates the pipeline. A nil asynq client makes Ingest process
// synchronously; a nil refiner disables refinement.
func NewIngestService(store ArtifactWriter, refiner refine.Refiner, asynqClient *asynq.Client, notifier Notifier, logger *zap.Logger, opts IngestOptions) *IngestService {
	if refiner == nil {
		refiner = refine.Disabled{}
	}
	logger = logging.OrNop(logger)
	if opts.ProgramName == "" {
		opts.ProgramName = codegen.DefaultProgramName
	}
	return &IngestService{
		store:       store,
		refiner:     refiner,
		generators:  codegen.Set(opts.RapidVariant),
		asynqClient: asynqClient,
		notifier:    notifier,
		logger:      logger,
		opts:        opts,
		now:         time.Now,
	}
}

// Queued reports whether Ingest hands work to the background queue
func (s *IngestService) Queued() bool {
	return s.asynqClient != nil
}

// Ingest accepts a raw telemetry event. headerSource is the transport-level source
// identifier, if any. The body is never rejected for its shape.
func (s *IngestService) Ingest(ctx context.Context, raw []byte, headerSource string) (*model.IngestResponse, error) {
	jobID, err := newJobID()
	if err != nil {
		return nil, err
	}
	payload := &model.IngestJobPayload{
		JobID:      jobID,
		SourceID:   strings.TrimSpace(headerSource),
		ReceivedAt: model.FormatTimestamp(s.now()),
		Raw:        append([]byte(nil), raw...),
	}

	if s.Queued() {
		return s.Enqueue(ctx, payload)
	}
	return s.Process(ctx, payload)
}

// Enqueue schedules a payload for background processing
func (s *IngestService) Enqueue(ctx context.Context, payload *model.IngestJobPayload) (*model.IngestResponse, error) {
	if s.asynqClient == nil {
		return nil, fmt.Errorf("ingest queue is not configured")
	}
	task, err := NewIngestTask(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.EnqueueContext(ctx, task,
		asynq.Queue(QueueIngest),
		asynq.MaxRetry(0),
		asynq.Retention(time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.logger.Debug("telemetry queued", zap.String("job_id", payload.JobID))
	return &model.IngestResponse{
		JobID:  payload.JobID,
		Queued: true,
	}, nil
}

// Process runs the pipeline for one payload and stores the result
func (s *IngestService) Process(ctx context.Context, payload *model.IngestJobPayload) (*model.IngestResponse, error) {
	if payload.JobID == "" {
		jobID, err := newJobID()
		if err != nil {
			return nil, err
		}
		payload.JobID = jobID
	}
	log := s.logger.With(zap.String("job_id", payload.JobID))

	result := normalizer.Normalize(payload.Raw)
	if result.Dropped > 0 {
		log.Warn("dropped unusable path points", zap.Int("dropped", result.Dropped))
	}

	sourceID := result.SourceID
	if sourceID == "" {
		sourceID = payload.SourceID
	}
	s.checkSource(log, sourceID)

	pathJSON, err := json.Marshal(result.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode path: %w", err)
	}

	programs := codegen.GenerateAll(s.generators, result.Path, s.opts.ProgramName)

	refined := map[model.Dialect]string{}
	if result.Valid() {
		refined = s.refiner.Refine(ctx, result.Path, programs)
	}

	job := &model.Job{
		ID:         payload.JobID,
		Status:     result.Status,
		CreatedAt:  s.receivedAt(payload),
		PointCount: result.Path.Len(),
		RobotModel: result.RobotModel,
		SourceID:   sourceID,
	}

	rec, err := s.store.Put(ctx, job, &model.Artifacts{
		Raw:      payload.Raw,
		Path:     pathJSON,
		Programs: programs,
		Refined:  refined,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	if s.notifier != nil {
		s.notifier.BroadcastJob(rec)
	}

	resp := &model.IngestResponse{
		JobID:      rec.JobID,
		Status:     rec.Status,
		Valid:      rec.Status == model.JobStatusValid,
		PointCount: rec.PointCount,
	}
	for _, d := range model.Dialects {
		if rec.ProgramKey(d, true) != "" {
			resp.Refined = append(resp.Refined, d)
		}
	}

	log.Info("job stored",
		zap.String("status", string(rec.Status)),
		zap.Int("points", rec.PointCount),
		zap.Int("refined", len(resp.Refined)))
	return resp, nil
}

// checkSource warns when telemetry does not come from the expected source. It never rejects.
func (s *IngestService) checkSource(log *zap.Logger, sourceID string) {
	expected := s.opts.ExpectedSourceID
	if expected == "" || sourceID == expected {
		return
	}
	log.Warn("telemetry source mismatch",
		zap.String("expected", expected),
		zap.String("actual", sourceID))
}

func (s *IngestService) receivedAt(payload *model.IngestJobPayload) time.Time {
	if t, err := time.Parse(model.TimestampLayout, payload.ReceivedAt); err == nil {
		return t
	}
	return s.now()
}

// NewIngestTask wraps a payload in an asynq task
func NewIngestTask(payload *model.IngestJobPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeIngest, data), nil
}

// newJobID returns a time-ordered unique identifier
func newJobID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}
	return id.String(), nil
}
