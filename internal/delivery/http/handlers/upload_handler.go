package handlers

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"video-hosting/internal/domain/dto"
	"video-hosting/internal/usecases"
	"video-hosting/pkg/errors"

	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	uploadService usecases.UploadService
}

func NewUploadHandler(uploadService usecases.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// CreateUpload
//
// @Summary      Create Upload
// @Description  Preallocates the source file and returns the chunk plan the client must upload
// @Tags         Upload
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateUploadRequestDTO true "Upload metadata"
// @Success      201      {object}  dto.CreateUploadResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Router       /admin/videos [post]
func (h *UploadHandler) CreateUpload(c *fiber.Ctx) error {
	var req dto.CreateUploadRequestDTO
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleError(c, errors.ErrInvalidInput(err))
	}

	resp, err := h.uploadService.CreateUpload(c.UserContext(), req)
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UploadChunk
//
// @Summary      Upload Chunk
// @Description  Writes one planned chunk; chunks may be sent in any order and in parallel
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        id         path      string true  "Video ID"
// @Param        chunkId    formData  string true  "Chunk ID"
// @Param        chunkHash  formData  string false "Hex SHA-256 of the chunk"
// @Param        file       formData  file   true  "Chunk bytes"
// @Success      200        {object}  dto.UploadChunkResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Failure      409        {object}  dto.ErrorResponse
// @Router       /admin/videos/{id} [put]
func (h *UploadHandler) UploadChunk(c *fiber.Ctx) error {
	req := dto.UploadChunkRequestDTO{
		VideoID:   c.Params("id"),
		ChunkID:   c.FormValue("chunkId"),
		ChunkHash: c.FormValue("chunkHash"),
	}
	if req.ChunkID == "" {
		return errors.HandleError(c, errors.ErrInvalidInput(fmt.Errorf("chunkId is required")))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errors.HandleError(c, errors.ErrInvalidInput(fmt.Errorf("file is required")))
	}
	f, err := fileHeader.Open()
	if err != nil {
		return errors.HandleError(c, errors.ErrInvalidInput(err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.HandleError(c, errors.ErrInvalidChunk(err))
	}

	resp, err := h.uploadService.UploadChunk(c.UserContext(), req, data)
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.JSON(resp)
}

// CreateUploadSingleShot
//
// @Summary      Single-shot Upload
// @Description  Uploads a whole video in one request and queues it for transcoding
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        name       formData  string true  "Display name"
// @Param        isPremium  formData  bool   false "Premium flag"
// @Param        file       formData  file   true  "Video file"
// @Success      202        {object}  dto.SingleShotUploadResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      500        {object}  dto.ErrorResponse
// @Router       /admin/videos/v2 [post]
func (h *UploadHandler) CreateUploadSingleShot(c *fiber.Ctx) error {
	isPremium, _ := strconv.ParseBool(c.FormValue("isPremium", "false"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errors.HandleError(c, errors.ErrInvalidInput(fmt.Errorf("file is required")))
	}
	f, err := fileHeader.Open()
	if err != nil {
		return errors.HandleError(c, errors.ErrInvalidInput(err))
	}
	defer f.Close()

	resp, err := h.uploadService.CreateUploadSingleShot(c.UserContext(),
		c.FormValue("name"), isPremium, filepath.Ext(fileHeader.Filename), f)
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// DeleteVideo
//
// @Summary      Delete Video
// @Description  Flags a video for deletion; files are reclaimed by the next janitor run
// @Tags         Upload
// @Produce      json
// @Param        id   path      string true "Video ID"
// @Success      202  {object}  dto.DeleteVideoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /admin/videos/{id} [delete]
func (h *UploadHandler) DeleteVideo(c *fiber.Ctx) error {
	resp, err := h.uploadService.DeleteVideo(c.UserContext(), c.Params("id"))
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// UploadStatus
//
// @Summary      Get Upload Status
// @Description  Returns the lifecycle status and the number of chunks still missing
// @Tags         Upload
// @Produce      json
// @Param        id   path      string true "Video ID"
// @Success      200  {object}  dto.UploadStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /admin/videos/{id}/status [get]
func (h *UploadHandler) UploadStatus(c *fiber.Ctx) error {
	resp, err := h.uploadService.GetUploadStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.JSON(resp)
}

// Settings
//
// @Summary      Pipeline Settings
// @Description  Chunk size and pipeline timings used by upload clients
// @Tags         Upload
// @Produce      json
// @Success      200  {object}  dto.PipelineSettingsResponse
// @Router       /config [get]
func (h *UploadHandler) Settings(c *fiber.Ctx) error {
	return c.JSON(h.uploadService.Settings())
}
