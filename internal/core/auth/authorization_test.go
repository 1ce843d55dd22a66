package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artpar/shopdesk/internal/core/domain"
)

func actorWith(role domain.Role) Actor {
	return Actor{UserID: "actor-1", Role: role, Authenticated: true}
}

// =============================================================================
// Field Authorization Tests
// =============================================================================

func TestCanSetPromotionalPrice(t *testing.T) {
	assert.True(t, CanSetPromotionalPrice(actorWith(domain.RoleAdmin)))
	assert.True(t, CanSetPromotionalPrice(actorWith(domain.RoleManager)))
	assert.False(t, CanSetPromotionalPrice(actorWith(domain.RoleSalesperson)))
	assert.False(t, CanSetPromotionalPrice(actorWith(domain.RoleStockClerk)))
	assert.False(t, CanSetPromotionalPrice(actorWith(domain.RoleCashier)))
}

func TestCanSetPromotionalPrice_UnauthenticatedManager(t *testing.T) {
	actor := Actor{Role: domain.RoleManager}
	assert.False(t, CanSetPromotionalPrice(actor))
}

func TestAllowedRoles(t *testing.T) {
	assert.Equal(t, append([]domain.Role{domain.RoleAdmin}, domain.StaffRoles...), AllowedRoles(actorWith(domain.RoleManager)))
	assert.Equal(t, domain.StaffRoles, AllowedRoles(actorWith(domain.RoleCashier)))
}

func TestCanAssignRole(t *testing.T) {
	assert.True(t, CanAssignRole(actorWith(domain.RoleAdmin), domain.RoleAdmin))
	assert.False(t, CanAssignRole(actorWith(domain.RoleSalesperson), domain.RoleAdmin))
	assert.True(t, CanAssignRole(actorWith(domain.RoleSalesperson), domain.RoleCashier))
	assert.False(t, CanAssignRole(actorWith(domain.RoleAdmin), domain.Role("janitor")))
}

func TestCanEditField(t *testing.T) {
	clerk := actorWith(domain.RoleStockClerk)
	manager := actorWith(domain.RoleManager)

	tests := []struct {
		name  string
		actor Actor
		kind  domain.RecordKind
		field string
		value string
		want  bool
	}{
		{"clerk promo", clerk, domain.KindProduct, domain.FieldPromotionalPrice, "9.99", false},
		{"manager promo", manager, domain.KindProduct, domain.FieldPromotionalPrice, "9.99", true},
		{"clerk price", clerk, domain.KindProduct, domain.FieldPrice, "9.99", true},
		{"clerk grants admin", clerk, domain.KindUser, domain.FieldRole, "admin", false},
		{"clerk grants cashier", clerk, domain.KindUser, domain.FieldRole, "cashier", true},
		{"manager grants admin", manager, domain.KindUser, domain.FieldRole, "admin", true},
		{"clerk customer name", clerk, domain.KindCustomer, domain.FieldName, "Ana", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEditField(tt.actor, tt.kind, tt.field, tt.value))
		})
	}
}

// =============================================================================
// User Authorization Tests
// =============================================================================

func TestCanDeleteUser(t *testing.T) {
	manager := actorWith(domain.RoleManager)
	cashier := actorWith(domain.RoleCashier)

	allowed, reason := CanDeleteUser(manager, domain.User{ID: "actor-1"})
	assert.False(t, allowed)
	assert.Equal(t, "you cannot delete your own user", reason)

	allowed, reason = CanDeleteUser(manager, domain.User{ID: "u-9", Role: domain.RoleAdmin})
	assert.True(t, allowed)
	assert.Empty(t, reason)

	allowed, _ = CanDeleteUser(cashier, domain.User{ID: "u-9", Role: domain.RoleAdmin})
	assert.False(t, allowed)

	allowed, _ = CanDeleteUser(cashier, domain.User{ID: "u-9", Role: domain.RoleCashier})
	assert.True(t, allowed)

	allowed, reason = CanDeleteUser(Anonymous, domain.User{ID: "u-9"})
	assert.False(t, allowed)
	assert.Equal(t, "authentication required", reason)
}
