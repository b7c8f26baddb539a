package domain

import (
	"context"
	"errors"
)

// Principal is the caller identity supplied by the authentication
// collaborator. OwnerID scopes every account the caller may touch.
type Principal struct {
	OwnerID string
	Role    Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleOwner can read and mutate the accounts it owns
	RoleOwner Role = "owner"

	// RoleViewer can only read, no mutations
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleOwner:  true,
	RoleViewer: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanWrite reports whether the role may call mutating operations.
func (r Role) CanWrite() bool {
	return r == RoleOwner
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the caller identity from ctx.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
