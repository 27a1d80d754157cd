package handlers

import (
	"errors"

	"github.com/coriplus/coriplus/internal/dto"
	"github.com/coriplus/coriplus/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	uploadService *services.UploadService
}

func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (h *UploadHandler) Serve(c *fiber.Ctx) error {
	path, err := h.uploadService.Path(c.UserContext(), c.Params("file"))
	if err != nil {
		if errors.Is(err, services.ErrUploadNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "File not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load file",
		})
	}
	return c.SendFile(path)
}
