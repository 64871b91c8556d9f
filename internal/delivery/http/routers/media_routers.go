package routers

import (
	"video-hosting/internal/delivery/http/handlers"

	"github.com/gofiber/fiber/v2"
)

func SetupMediaRoutes(app *fiber.App, mediaHandler *handlers.MediaHandler) {
	api := app.Group("/api/v1")
	api.Get("/videos/:id/thumbnail", mediaHandler.Thumbnail)
	api.Get("/videos/:id/stream", mediaHandler.Stream)
}
