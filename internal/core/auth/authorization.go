package auth

import "github.com/artpar/shopdesk/internal/core/domain"

// =============================================================================
// Field Authorization
// =============================================================================

func isPrivileged(actor Actor) bool {
	return actor.Authenticated && (actor.Role == domain.RoleAdmin || actor.Role == domain.RoleManager)
}

// CanSetPromotionalPrice checks if the actor may set or clear a product's
// promotional price. Only admins and managers may.
func CanSetPromotionalPrice(actor Actor) bool {
	return isPrivileged(actor)
}

// CanGrantAdmin checks if the actor may assign the admin role.
func CanGrantAdmin(actor Actor) bool {
	return isPrivileged(actor)
}

// AllowedRoles returns the roles the actor may assign, in display order.
func AllowedRoles(actor Actor) []domain.Role {
	roles := make([]domain.Role, 0, len(domain.StaffRoles)+1)
	if CanGrantAdmin(actor) {
		roles = append(roles, domain.RoleAdmin)
	}
	return append(roles, domain.StaffRoles...)
}

// CanAssignRole checks if the role is among AllowedRoles(actor).
func CanAssignRole(actor Actor, role domain.Role) bool {
	for _, r := range AllowedRoles(actor) {
		if r == role {
			return true
		}
	}
	return false
}

// CanEditField checks if the actor may change a field to value.
// An empty value asks whether the field is editable at all.
func CanEditField(actor Actor, kind domain.RecordKind, field, value string) bool {
	switch kind {
	case domain.KindProduct:
		if field == domain.FieldPromotionalPrice {
			return CanSetPromotionalPrice(actor)
		}
	case domain.KindUser:
		if field == domain.FieldRole && value == string(domain.RoleAdmin) {
			return CanGrantAdmin(actor)
		}
	case domain.KindCustomer:
	}
	return true
}

// =============================================================================
// User Authorization
// =============================================================================

// CanDeleteUser checks if the actor can delete the target user.
// Nobody can delete their own user, and only privileged actors can delete an admin.
// Returns (true, "") if allowed, or (false, reason) if not allowed.
func CanDeleteUser(actor Actor, target domain.User) (bool, string) {
	if !actor.Authenticated {
		return false, "authentication required"
	}
	if actor.UserID == target.ID {
		return false, "you cannot delete your own user"
	}
	if target.Role == domain.RoleAdmin && !CanGrantAdmin(actor) {
		return false, "only admins and managers can delete an admin"
	}
	return true, ""
}
