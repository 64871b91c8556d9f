package errors

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps a pipeline error code to the HTTP status returned to clients.
func StatusFor(code string) int {
	switch code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeInvalidState, CodeAlreadyExists:
		return fiber.StatusConflict
	case CodeInvalidChunk, CodeInvalidSize, CodeInvalidInput:
		return fiber.StatusBadRequest
	case CodeExternalTool:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func HandleError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var ue *UploadError
	if stderrors.As(err, &ue) {
		status := StatusFor(ue.Code)
		if status >= fiber.StatusInternalServerError {
			logFailure(c, status, ue.Code, ue)
		}
		return c.Status(status).JSON(fiber.Map{
			"error":   ue.Code,
			"message": ue.Message,
		})
	}

	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":   "http_error",
			"message": fe.Message,
		})
	}

	logFailure(c, fiber.StatusInternalServerError, CodeInternal, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   CodeInternal,
		"message": "internal server error",
	})
}

// logFailure records the cause of a server-side failure; clients only see
// the code and message.
func logFailure(c *fiber.Ctx, status int, code string, err error) {
	zap.L().Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.String("code", code),
		zap.Error(err))
}
