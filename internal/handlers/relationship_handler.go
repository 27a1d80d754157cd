package handlers

import (
	"errors"

	"github.com/coriplus/coriplus/internal/dto"
	"github.com/coriplus/coriplus/internal/identity"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/services"
	"github.com/gofiber/fiber/v2"
)

type RelationshipHandler struct {
	relationshipService *services.RelationshipService
}

func NewRelationshipHandler(relationshipService *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

func (h *RelationshipHandler) Follow(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	if err := h.relationshipService.Follow(c.UserContext(), userID, c.Params("username")); err != nil {
		return relationshipError(c, err, "Failed to follow user")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Followed successfully"})
}

func (h *RelationshipHandler) Unfollow(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	if err := h.relationshipService.Unfollow(c.UserContext(), userID, c.Params("username")); err != nil {
		return relationshipError(c, err, "Failed to unfollow user")
	}
	return c.JSON(fiber.Map{"message": "Unfollowed successfully"})
}

func (h *RelationshipHandler) Followers(c *fiber.Ctx) error {
	limit, offset := pagination(c, defaultPageSize)
	users, err := h.relationshipService.Followers(c.UserContext(), c.Params("username"), limit, offset)
	if err != nil {
		return relationshipError(c, err, "Failed to fetch followers")
	}
	return c.JSON(userList(users, limit, offset))
}

func (h *RelationshipHandler) Following(c *fiber.Ctx) error {
	limit, offset := pagination(c, defaultPageSize)
	users, err := h.relationshipService.Following(c.UserContext(), c.Params("username"), limit, offset)
	if err != nil {
		return relationshipError(c, err, "Failed to fetch followed users")
	}
	return c.JSON(userList(users, limit, offset))
}

func userList(users []models.User, limit, offset int) dto.UserListResponse {
	resp := dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users)), Limit: limit, Offset: offset}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&users[i]))
	}
	return resp
}

func relationshipError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrSelfFollow):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrAlreadyFollowing), errors.Is(err, services.ErrNotFollowing):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}
