package uploading

import (
	"github.com/gofiber/fiber/v2"

	"fileuploader/internal/infra/logging"
)

// Gateway is one candidate handler for an upload request.
type Gateway interface {
	Name() string
	IsResponsible(c *fiber.Ctx) bool
	Upload(c *fiber.Ctx) (Envelope, error)
}

// WebUploader hands a request to the first responsible gateway.
type WebUploader struct {
	gateways []Gateway
}

func NewWebUploader(gateways ...Gateway) *WebUploader {
	return &WebUploader{gateways: gateways}
}

// Upload returns nil, nil when no gateway claims the request.
func (u *WebUploader) Upload(c *fiber.Ctx) (Envelope, error) {
	for _, gw := range u.gateways {
		if !gw.IsResponsible(c) {
			continue
		}
		logging.Debug("Upload gateway selected", "gateway", gw.Name(), "request_id", c.GetRespHeader(fiber.HeaderXRequestID))
		return gw.Upload(c)
	}
	return nil, nil
}
