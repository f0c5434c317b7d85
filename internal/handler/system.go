package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthInfo describes the wiring reported by GET /health
type HealthInfo struct {
	Storage    string `json:"storage"`
	Index      string `json:"index"`
	Queue      bool   `json:"queue"`
	Refinement bool   `json:"refinement"`
	Generator  string `json:"generator,omitempty"`
	Redis      bool   `json:"redis"`
}

type SystemHandler struct {
	info HealthInfo
	now  func() time.Time
}

func NewSystemHandler(info HealthInfo) *SystemHandler {
	return &SystemHandler{info: info, now: time.Now}
}

// Root handles GET /
func (h *SystemHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"timestamp": h.now().Unix(),
	})
}

// Health handles GET /health
// @Summary      Health check
// @Tags         System
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /health [get]
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"services": h.info,
	})
}
