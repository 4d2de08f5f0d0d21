// Package auth resolves the acting user of a request from a signed session token.
package auth

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ActingUser is the authenticated caller of an operation. The zero value is a guest.
type ActingUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// IsGuest reports whether the caller is anonymous.
func (u ActingUser) IsGuest() bool {
	return u.ID == 0
}

type ctxKey struct{}

// WithActingUser returns a copy of ctx carrying u.
func WithActingUser(ctx context.Context, u ActingUser) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the acting user stored in ctx, or a guest.
func FromContext(ctx context.Context) ActingUser {
	u, _ := ctx.Value(ctxKey{}).(ActingUser)
	return u
}
