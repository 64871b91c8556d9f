package routers

import (
	"video-hosting/internal/delivery/http/handlers"

	"github.com/gofiber/fiber/v2"
)

func SetupUploadRoutes(app *fiber.App, uploadHandler *handlers.UploadHandler, cleanupHandler *handlers.CleanupHandler) {
	api := app.Group("/api/v1")
	api.Get("/config", uploadHandler.Settings)

	admin := api.Group("/admin")
	admin.Post("/videos", uploadHandler.CreateUpload)
	admin.Post("/videos/v2", uploadHandler.CreateUploadSingleShot)
	admin.Put("/videos/:id", uploadHandler.UploadChunk)
	admin.Delete("/videos/:id", uploadHandler.DeleteVideo)
	admin.Get("/videos/:id/status", uploadHandler.UploadStatus)
	admin.Post("/cleanup", cleanupHandler.RunCleanup)
}
