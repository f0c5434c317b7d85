// Package worker runs queued telemetry ingestion on the asynq worker server.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/pathforge/api/internal/logging"
	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/internal/service"
)

// Processor runs the ingestion pipeline for one payload
type Processor interface {
	Process(ctx context.Context, payload *model.IngestJobPayload) (*model.IngestResponse, error)
}

// IngestWorker processes telemetry:ingest tasks
type IngestWorker struct {
	processor Processor
	logger    *zap.Logger
}

// NewIngestWorker creates a new ingest worker
func NewIngestWorker(processor Processor, logger *zap.Logger) *IngestWorker {
	logger = logging.OrNop(logger)
	return &IngestWorker{processor: processor, logger: logger}
}

// Register binds the worker to its task type
func (w *IngestWorker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(service.TaskTypeIngest, w.ProcessTask)
}

// ProcessTask handles ingest task processing. Undecodable payloads are not retried.
func (w *IngestWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.IngestJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("invalid ingest task payload", zap.Error(err))
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	w.logger.Debug("starting ingest job", zap.String("job_id", payload.JobID))
	if _, err := w.processor.Process(ctx, &payload); err != nil {
		w.logger.Error("ingest job failed", zap.String("job_id", payload.JobID), zap.Error(err))
		return err
	}
	return nil
}
