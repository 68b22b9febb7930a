package handlers

import (
	"errors"
	"mime"

	"github.com/gofiber/fiber/v2"

	"fileuploader/internal/filerepository"
	"fileuploader/internal/infra/logging"
)

// FilesHandler serves stored-file descriptors and their content.
type FilesHandler struct {
	repos *filerepository.Registry
}

func NewFilesHandler(repos *filerepository.Registry) *FilesHandler {
	return &FilesHandler{repos: repos}
}

func (h *FilesHandler) HandleDescribe(c *fiber.Ctx) error {
	f, err := h.repos.Describe(c.UserContext(), c.Params("id"))
	if err != nil {
		return fileError(c, err)
	}
	return c.JSON(f)
}

func (h *FilesHandler) HandleContent(c *fiber.Ctx) error {
	f, data, err := h.repos.Content(c.UserContext(), c.Params("id"))
	if err != nil {
		return fileError(c, err)
	}
	c.Set(fiber.HeaderContentType, f.MimeType)
	c.Set(fiber.HeaderContentDisposition, contentDisposition(f.Filename))
	return c.Send(data)
}

func fileError(c *fiber.Ctx, err error) error {
	if errors.Is(err, filerepository.ErrFileNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	}
	logging.Error("File lookup failed", "id", c.Params("id"), "error", err)
	return fiber.ErrInternalServerError
}

// contentDisposition marks the response as a download. Non-ASCII names are
// sent as filename*.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
