package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/pkg/response"
)

// SourceHeader optionally identifies the device that sent the telemetry
const SourceHeader = "X-Source-Id"

// Ingester accepts raw telemetry events
type Ingester interface {
	Ingest(ctx context.Context, raw []byte, headerSource string) (*model.IngestResponse, error)
}

type TelemetryHandler struct {
	service Ingester
	logger  *zap.Logger
}

func NewTelemetryHandler(svc Ingester, logger *zap.Logger) *TelemetryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelemetryHandler{
		service: svc,
		logger:  logger,
	}
}

// Ingest handles POST /api/telemetry
// @Summary      Ingest telemetry
// @Description  Store a gesture path telemetry event and generate motion programs. The body is never rejected for its shape; unusable payloads become INVALID jobs.
// @Tags         Telemetry
// @Accept       json
// @Produce      json
// @Param        request body model.Telemetry true "Telemetry event"
// @Param        X-Source-Id header string false "Source device identifier"
// @Success      201 {object} model.IngestResponse
// @Success      202 {object} model.IngestResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /api/telemetry [post]
func (h *TelemetryHandler) Ingest(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer once the handler returns
	raw := append([]byte(nil), c.Body()...)

	result, err := h.service.Ingest(c.UserContext(), raw, c.Get(SourceHeader))
	if err != nil {
		h.logger.Error("telemetry ingestion failed", zap.Error(err))
		return response.ServiceError(c, "Failed to store telemetry")
	}

	if result.Queued {
		return response.Accepted(c, result)
	}
	return response.Created(c, result)
}
