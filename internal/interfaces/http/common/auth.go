package common

import (
	"context"

	"github.com/sngm3741/store-audit-services/api/internal/audit/domain"
)

type contextKey string

const authUserContextKey contextKey = "authUser"

// AuthenticatedUser represents the JWT-derived principal.
type AuthenticatedUser struct {
	ID       string      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role"`
}

// Actor converts the principal into the permission gate's view of it.
func (u AuthenticatedUser) Actor() domain.Actor {
	return domain.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// ContextWithUser stores the authenticated user into context.
func ContextWithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(authUserContextKey).(AuthenticatedUser)
	return user, ok
}
