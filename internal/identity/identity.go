// Package identity supplies the current authenticated user. It never
// falls back to an anonymous or shared identity.
package identity

import (
	"context"
	"errors"
)

// ErrNotAuthenticated is returned when no current user is available
var ErrNotAuthenticated = errors.New("user not authenticated")

// User is the authenticated caller
type User struct {
	ID   string
	Name string
}

type contextKey struct{}

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// CurrentUser returns the user stored in ctx, if any
func CurrentUser(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(contextKey{}).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

// UserID returns the current user id or ErrNotAuthenticated
func UserID(ctx context.Context) (string, error) {
	user, ok := CurrentUser(ctx)
	if !ok {
		return "", ErrNotAuthenticated
	}
	return user.ID, nil
}
