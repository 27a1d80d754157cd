package middleware

import (
	"context"
	"errors"

	"github.com/coriplus/coriplus/internal/config"
	"github.com/coriplus/coriplus/internal/dto"
	"github.com/coriplus/coriplus/internal/identity"
	"github.com/coriplus/coriplus/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// AccountChecker tells whether the subject of a valid token may still act.
type AccountChecker interface {
	CheckActive(ctx context.Context, userID uint) error
}

func JWTProtected(cfg *config.Config, accounts AccountChecker) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ContextKey:     identity.LocalsKey,
		SuccessHandler: activeAccount(accounts),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// JWTOptional parses a bearer token when one is present and lets the
// request through either way. Routes behind it treat a missing or invalid
// token as an anonymous caller. A valid token of a disabled account is
// still refused.
func JWTOptional(cfg *config.Config, accounts AccountChecker) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ContextKey:     identity.LocalsKey,
		SuccessHandler: activeAccount(accounts),
		Filter: func(c *fiber.Ctx) bool {
			return bearerToken(c) == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			c.Locals(identity.LocalsKey, nil)
			return c.Next()
		},
	})
}

// activeAccount runs after a token verified. Access tokens stay valid
// after a take-down, so the account state is read on every request.
func activeAccount(accounts AccountChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := identity.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: invalid token subject",
			})
		}

		switch err := accounts.CheckActive(c.UserContext(), userID); {
		case err == nil:
			return c.Next()
		case errors.Is(err, services.ErrAccountDisabled):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Your account has been disabled by violating our Terms.",
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: account not found",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
	}
}
