package middleware

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/coriplus/coriplus/internal/config"
	"github.com/coriplus/coriplus/internal/dto"
	"github.com/coriplus/coriplus/internal/identity"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRequired lets a request through only when the caller is an
// administrator. Callers authenticate with either
//  1. Authorization: Basic (username and password), or
//  2. Authorization: Bearer (an access token issued at login).
//
// Every denial gets the same 403 body, whatever the cause.
func AdminRequired(gate *services.AccessGate, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var admin *models.User
		var ok bool

		if username, password, found := basicCredentials(c); found {
			admin, ok = gate.AuthorizeCredentials(c.UserContext(), username, password)
		} else if raw := bearerToken(c); raw != "" {
			if userID, err := subjectFromToken(raw, cfg.JWTSecret); err == nil {
				admin, ok = gate.AuthorizeSubject(c.UserContext(), userID)
			} else {
				gate.Deny()
			}
		} else {
			gate.Deny()
		}

		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Forbidden",
			})
		}
		identity.SetAdmin(c, admin.ID)
		return c.Next()
	}
}

func basicCredentials(c *fiber.Ctx) (string, string, bool) {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) < 6 || !strings.EqualFold(auth[:6], "basic ") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(auth[6:]))
	if err != nil {
		return "", "", true
	}
	username, password, found := strings.Cut(string(raw), ":")
	if !found {
		return "", "", true
	}
	return username, password, true
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func subjectFromToken(raw, secret string) (uint, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sub claim: %w", err)
	}
	return uint(id), nil
}
