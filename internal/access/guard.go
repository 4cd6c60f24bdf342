package access

import (
	"fmt"

	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/metrics"
	"github.com/Baaaki/role-admin/internal/models"
)

// Guard is a single capability check.
type Guard struct {
	Name  string
	check func(Principal) error
}

// Authenticated fails with apperr.ErrUnauthorized for anonymous principals.
var Authenticated = Guard{Name: "authenticated", check: RequireAuthenticated}

// AdminOnly fails unless the principal holds ADMIN.
var AdminOnly = Guard{
	Name: "admin",
	check: func(p Principal) error {
		return RequireRole(p, models.RoleAdmin)
	},
}

// StaffOnly fails unless the principal holds ADMIN or EDITOR.
var StaffOnly = Guard{
	Name: "admin_or_editor",
	check: func(p Principal) error {
		return RequireAnyRole(p, models.RoleAdmin, models.RoleEditor)
	},
}

func RequireAuthenticated(p Principal) error {
	if !p.IsAuthenticated() {
		return apperr.ErrUnauthorized
	}
	return nil
}

// RequireRole fails with apperr.ErrForbidden unless the role set contains role.
func RequireRole(p Principal, role string) error {
	return RequireAnyRole(p, role)
}

// RequireAnyRole fails with apperr.ErrForbidden unless the role set
// intersects roles. An anonymous principal gets apperr.ErrUnauthorized.
func RequireAnyRole(p Principal, roles ...string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.HasAnyRole(roles...) {
		return fmt.Errorf("%w: requires one of %v", apperr.ErrForbidden, roles)
	}
	return nil
}

// Check runs guards in order and returns the first failure.
func Check(p Principal, guards ...Guard) error {
	for _, g := range guards {
		if err := g.check(p); err != nil {
			metrics.GuardDecisionsTotal.WithLabelValues(g.Name, "denied").Inc()
			return err
		}
		metrics.GuardDecisionsTotal.WithLabelValues(g.Name, "allowed").Inc()
	}
	return nil
}

// CanSeeAll reports whether p sees every user and order rather than only its own.
func CanSeeAll(p Principal) bool {
	return p.HasAnyRole(models.RoleAdmin, models.RoleEditor)
}

// InScope is the visibility predicate shared by user and order listings.
func InScope(p Principal, ownerID uint) bool {
	if !p.IsAuthenticated() {
		return false
	}
	return ownerID == p.UserID || CanSeeAll(p)
}
