package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fileuploader/internal/infra/logging"
	"fileuploader/internal/uploading"
)

// UploadHandler serves the universal upload endpoint.
type UploadHandler struct {
	enabled  bool
	uploader uploading.Uploader
}

func NewUploadHandler(enabled bool, uploader uploading.Uploader) *UploadHandler {
	return &UploadHandler{enabled: enabled, uploader: uploader}
}

// HandleUpload answers with the uploader's envelope, or 404 when uploads are disabled.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	outcome, err := uploading.Attempt(c, h.enabled, h.uploader)
	if err != nil {
		logging.Error("Upload failed", "path", c.Path(), "request_id", c.GetRespHeader(fiber.HeaderXRequestID), "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Upload failed")
	}

	env, err := uploading.Translate(outcome)
	if errors.Is(err, uploading.ErrFeatureDisabled) {
		return fiber.ErrNotFound
	}
	if err != nil {
		logging.Error("Upload outcome not translatable", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(env)
}
