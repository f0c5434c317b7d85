package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/pkg/response"
)

// LatestQuerier answers the read endpoints. Its methods never fail.
type LatestQuerier interface {
	Status(ctx context.Context) model.StatusResponse
	Path(ctx context.Context) model.PathResponse
	Code(ctx context.Context) model.CodeResponse
}

type LatestHandler struct {
	service LatestQuerier
}

func NewLatestHandler(svc LatestQuerier) *LatestHandler {
	return &LatestHandler{service: svc}
}

// Status handles GET /latest/status
// @Summary      Latest job status
// @Description  Whether the most recent job holds a valid path. "Awaiting data" before the first ingestion.
// @Tags         Latest
// @Produce      json
// @Success      200 {object} model.StatusResponse
// @Router       /latest/status [get]
func (h *LatestHandler) Status(c *fiber.Ctx) error {
	return response.OK(c, h.service.Status(c.UserContext()))
}

// Path handles GET /latest/path
// @Summary      Latest canonical path
// @Description  Waypoints in meters of the most recent job; an empty points array when unavailable.
// @Tags         Latest
// @Produce      json
// @Success      200 {object} model.PathResponse
// @Router       /latest/path [get]
func (h *LatestHandler) Path(c *fiber.Ctx) error {
	return response.OK(c, h.service.Path(c.UserContext()))
}

// Code handles GET /latest/code
// @Summary      Latest motion programs
// @Description  KAREL, KRL and RAPID text of the most recent job, refined when available.
// @Tags         Latest
// @Produce      json
// @Success      200 {object} model.CodeResponse
// @Router       /latest/code [get]
func (h *LatestHandler) Code(c *fiber.Ctx) error {
	return response.OK(c, h.service.Code(c.UserContext()))
}
