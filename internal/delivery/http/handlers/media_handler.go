package handlers

import (
	"fmt"

	"video-hosting/internal/usecases"
	"video-hosting/pkg/errors"

	"github.com/gofiber/fiber/v2"
)

type MediaHandler struct {
	uploadService usecases.UploadService
}

func NewMediaHandler(uploadService usecases.UploadService) *MediaHandler {
	return &MediaHandler{uploadService: uploadService}
}

// Thumbnail
//
// @Summary      Video Thumbnail
// @Tags         Media
// @Produce      jpeg
// @Param        id   path  string true "Video ID"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /videos/{id}/thumbnail [get]
func (h *MediaHandler) Thumbnail(c *fiber.Ctx) error {
	data, err := h.uploadService.GetThumbnail(c.UserContext(), c.Params("id"))
	if err != nil {
		return errors.HandleError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(data)
}

// Stream
//
// @Summary      Stream Video
// @Description  Serves a byte range of a READY video; open ranges are capped at 1 MiB
// @Tags         Media
// @Produce      mp4
// @Param        id     path    string true  "Video ID"
// @Param        Range  header  string false "bytes=start-end"
// @Success      206  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      416  {object}  dto.ErrorResponse
// @Router       /videos/{id}/stream [get]
func (h *MediaHandler) Stream(c *fiber.Ctx) error {
	chunk, err := h.uploadService.StreamVideo(c.UserContext(), c.Params("id"), c.Get(fiber.HeaderRange))
	if err != nil {
		if errors.HasCode(err, errors.CodeInvalidInput) && c.Get(fiber.HeaderRange) != "" {
			return c.Status(fiber.StatusRequestedRangeNotSatisfiable).JSON(fiber.Map{
				"error":   errors.CodeInvalidInput,
				"message": "range not satisfiable",
			})
		}
		return errors.HandleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "video/mp4")
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", chunk.Start, chunk.End, chunk.Length))
	return c.Status(fiber.StatusPartialContent).Send(chunk.Data)
}
