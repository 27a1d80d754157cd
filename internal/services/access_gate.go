package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coriplus/coriplus/internal/metrics"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/repository"
	"gorm.io/gorm"
)

// AccessGate decides whether a caller may use the moderation endpoints.
// Every denial looks the same to the caller: a missing user, a wrong
// password and a non-admin account all return false.
type AccessGate struct {
	db *gorm.DB
}

func NewAccessGate(db *gorm.DB) *AccessGate {
	return &AccessGate{db: db}
}

// CheckCredentials grants access when username and password belong to an
// administrator.
func (g *AccessGate) CheckCredentials(ctx context.Context, username, password string) bool {
	_, ok := g.AuthorizeCredentials(ctx, username, password)
	return ok
}

// CheckSubject grants access to the already-authenticated user id when it
// belongs to an administrator.
func (g *AccessGate) CheckSubject(ctx context.Context, userID uint) bool {
	_, ok := g.AuthorizeSubject(ctx, userID)
	return ok
}

// AuthorizeCredentials is CheckCredentials returning the admin on success.
func (g *AccessGate) AuthorizeCredentials(ctx context.Context, username, password string) (*models.User, bool) {
	if username == "" || password == "" {
		return g.deny()
	}
	user, err := repository.NewUserRepository(g.db).FindByCredentials(ctx, username, password)
	if err != nil {
		g.logLookupError(err)
		return g.deny()
	}
	return g.decide(user)
}

// AuthorizeSubject is CheckSubject returning the admin on success.
func (g *AccessGate) AuthorizeSubject(ctx context.Context, userID uint) (*models.User, bool) {
	user, err := repository.NewUserRepository(g.db).FindByID(ctx, userID)
	if err != nil {
		g.logLookupError(err)
		return g.deny()
	}
	return g.decide(user)
}

func (g *AccessGate) decide(user *models.User) (*models.User, bool) {
	if !user.IsAdmin() || user.IsDisabled == models.DisabledStatePermanent {
		return g.deny()
	}
	return user, true
}

// Deny records a denial that was decided before any lookup, such as a
// request without usable credentials.
func (g *AccessGate) Deny() {
	metrics.AdminGateDenialsTotal.Inc()
}

func (g *AccessGate) deny() (*models.User, bool) {
	g.Deny()
	return nil, false
}

func (g *AccessGate) logLookupError(err error) {
	if !errors.Is(err, repository.ErrNotFound) {
		slog.Error("admin gate lookup failed", "action", "admin_gate", "error", err)
	}
}
