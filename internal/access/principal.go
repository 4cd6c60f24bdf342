// Package access decides who may do what to whom.
//
// A Principal is resolved once per request (see package session) and passed
// explicitly into every guarded operation. Guards are plain functions run in
// order at the top of each operation; the first failure wins.
package access

import (
	"context"
	"sort"
)

// Principal is the resolved identity of the caller. The zero value is anonymous.
type Principal struct {
	UserID   uint     `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Anonymous is the principal of a request without a valid session.
var Anonymous = Principal{}

// NewPrincipal builds an authenticated principal. Role names are
// deduplicated and sorted so two principals with the same role set compare equal.
func NewPrincipal(userID uint, username string, roles []string) Principal {
	return Principal{
		UserID:   userID,
		Username: username,
		Roles:    normalizeRoles(roles),
	}
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != 0
}

// HasRole reports whether the role set contains role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the role set intersects roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
