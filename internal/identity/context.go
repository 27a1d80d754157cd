package identity

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalsKey is where the JWT middleware stores the parsed token.
const LocalsKey = "user"

// GetUserID extracts the user id from the JWT claims in context.
func GetUserID(c *fiber.Ctx) (uint, error) {
	claims, err := getClaims(c)
	if err != nil {
		return 0, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("missing sub claim")
	}

	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, errors.New("invalid sub claim")
	}
	return uint(id), nil
}

// OptionalUserID returns nil when the request carries no valid token.
func OptionalUserID(c *fiber.Ctx) *uint {
	id, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return &id
}

func GetUsername(c *fiber.Ctx) string {
	claims, err := getClaims(c)
	if err != nil {
		return ""
	}
	username, _ := claims["username"].(string)
	return username
}

func getClaims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(LocalsKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

const adminKey = "admin_id"

// SetAdmin records the administrator the admin gate let through.
func SetAdmin(c *fiber.Ctx, id uint) {
	c.Locals(adminKey, id)
}

// AdminID returns the administrator recorded by SetAdmin, or nil.
func AdminID(c *fiber.Ctx) *uint {
	id, ok := c.Locals(adminKey).(uint)
	if !ok {
		return nil
	}
	return &id
}
