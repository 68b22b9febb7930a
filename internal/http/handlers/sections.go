package handlers

import (
	"github.com/gofiber/fiber/v2"

	"fileuploader/internal/sections"
)

// SectionsHandler exposes the section registry read-only.
type SectionsHandler struct {
	registry *sections.Registry
}

func NewSectionsHandler(registry *sections.Registry) *SectionsHandler {
	return &SectionsHandler{registry: registry}
}

func (h *SectionsHandler) HandleList(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"sections": h.registry.All()})
}

func (h *SectionsHandler) HandleGet(c *fiber.Ctx) error {
	s, ok := h.registry.Get(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Section not found")
	}
	return c.JSON(s)
}
