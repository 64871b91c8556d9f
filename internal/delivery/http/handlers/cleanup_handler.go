package handlers

import (
	"video-hosting/internal/usecases"

	"github.com/gofiber/fiber/v2"
)

type CleanupHandler struct {
	cleanupUC usecases.CleanupService
}

func NewCleanupHandler(cleanupUC usecases.CleanupService) *CleanupHandler {
	return &CleanupHandler{
		cleanupUC: cleanupUC,
	}
}

// RunCleanup
//
// @Summary      Run Janitor
// @Description  Manual trigger for the stale-video and session sweeps
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  dto.CleanupResponse
// @Router       /admin/cleanup [post]
func (h *CleanupHandler) RunCleanup(c *fiber.Ctx) error {
	return c.JSON(h.cleanupUC.RunOnce(c.UserContext()))
}
