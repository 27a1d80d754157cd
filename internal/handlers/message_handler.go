package handlers

import (
	"errors"

	"github.com/coriplus/coriplus/internal/dto"
	"github.com/coriplus/coriplus/internal/identity"
	"github.com/coriplus/coriplus/internal/services"
	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 20

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Create accepts JSON or a multipart form with an optional "file" image.
func (h *MessageHandler) Create(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	msg, err := h.messageService.Create(c.UserContext(), userID, req.Text, req.Privacy, file)
	if err != nil {
		var rejected *services.ContentRejectedError
		switch {
		case errors.As(err, &rejected):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: rejected.Message,
			})
		case errors.Is(err, services.ErrEmptyMessage),
			errors.Is(err, services.ErrMessageTooLong),
			errors.Is(err, services.ErrInvalidPrivacy),
			errors.Is(err, services.ErrUnsupportedUpload):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create message",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessageHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message ID",
		})
	}

	var viewerID uint
	if v := identity.OptionalUserID(c); v != nil {
		viewerID = *v
	}

	msg, err := h.messageService.Get(c.UserContext(), id, viewerID)
	if err != nil {
		return messageError(c, err, "Failed to fetch message")
	}
	return c.JSON(msg)
}

func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message ID",
		})
	}

	if err := h.messageService.Delete(c.UserContext(), id, userID); err != nil {
		return messageError(c, err, "Failed to delete message")
	}
	return c.JSON(fiber.Map{"message": "Message deleted successfully"})
}

func (h *MessageHandler) ListByUser(c *fiber.Ctx) error {
	var viewerID uint
	if v := identity.OptionalUserID(c); v != nil {
		viewerID = *v
	}
	limit, offset := pagination(c, defaultPageSize)

	list, err := h.messageService.ListByUser(c.UserContext(), c.Params("username"), viewerID, limit, offset)
	if err != nil {
		return messageError(c, err, "Failed to fetch messages")
	}
	return c.JSON(dto.MessageListResponse{Messages: list, Limit: limit, Offset: offset})
}

func (h *MessageHandler) Feed(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	limit, offset := pagination(c, defaultPageSize)

	list, err := h.messageService.Feed(c.UserContext(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch feed",
		})
	}
	return c.JSON(dto.MessageListResponse{Messages: list, Limit: limit, Offset: offset})
}

func (h *MessageHandler) ToggleUpvote(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message ID",
		})
	}

	upvoted, err := h.messageService.ToggleUpvote(c.UserContext(), id, userID)
	if err != nil {
		return messageError(c, err, "Failed to upvote message")
	}
	return c.JSON(fiber.Map{"upvoted": upvoted})
}

func messageError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrMessageNotFound), errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotAuthor):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}
