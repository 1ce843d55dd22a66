// Package domain contains the core domain types for the shopdesk back office.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrUnknownKind = errors.New("unknown record kind")
	ErrUnknownMode = errors.New("unknown form mode")
	ErrUnknownRole = errors.New("unknown role")

	// ErrInvalidRecord is returned when a record cannot be converted to a typed entity.
	ErrInvalidRecord = errors.New("invalid record")
)

// =============================================================================
// Record Kind
// =============================================================================

// RecordKind identifies which family of record a form edits.
type RecordKind string

const (
	KindProduct  RecordKind = "product"
	KindUser     RecordKind = "user"
	KindCustomer RecordKind = "customer"
)

// IsValid checks if the record kind is one of the known kinds.
func (k RecordKind) IsValid() bool {
	switch k {
	case KindProduct, KindUser, KindCustomer:
		return true
	default:
		return false
	}
}

// ParseKind converts a string into a RecordKind.
func ParseKind(s string) (RecordKind, error) {
	k := RecordKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

// =============================================================================
// Form Mode
// =============================================================================

// FormMode is the editing mode a form was opened in.
type FormMode string

const (
	ModeAdd  FormMode = "add"
	ModeEdit FormMode = "edit"
	ModeView FormMode = "view"
)

// IsValid checks if the mode is one of the known modes.
func (m FormMode) IsValid() bool {
	switch m {
	case ModeAdd, ModeEdit, ModeView:
		return true
	default:
		return false
	}
}

// ParseMode converts a string into a FormMode.
func ParseMode(s string) (FormMode, error) {
	m := FormMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrUnknownMode
	}
	return m, nil
}

// =============================================================================
// Roles
// =============================================================================

// Role is an employee role. Admin is only assignable by privileged actors.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleSalesperson Role = "salesperson"
	RoleStockClerk  Role = "stock_clerk"
	RoleCashier     Role = "cashier"
)

// StaffRoles are the roles any actor may assign.
var StaffRoles = []Role{RoleManager, RoleSalesperson, RoleStockClerk, RoleCashier}

var roleLabels = map[Role]string{
	RoleAdmin:       "Administrador",
	RoleManager:     "Gerente",
	RoleSalesperson: "Vendedor",
	RoleStockClerk:  "Estoquista",
	RoleCashier:     "Caixa",
}

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the display label shown in the back office.
func (r Role) Label() string {
	return roleLabels[r]
}

// ParseRole accepts either the wire value ("stock_clerk") or the display
// label ("Estoquista"), case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if r := Role(strings.ToLower(s)); r.IsValid() {
		return r, nil
	}
	for r, label := range roleLabels {
		if strings.EqualFold(label, s) {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

// =============================================================================
// Field Names
// =============================================================================

const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"

	// Product
	FieldPrice            = "price"
	FieldPromotionalPrice = "promotionalPrice"
	FieldType             = "type"
	FieldExpirationDate   = "expirationDate"
	FieldStock            = "stock"

	// User and customer
	FieldEmail    = "email"
	FieldCPF      = "cpf"
	FieldPassword = "password"
	FieldRole     = "role"
	FieldAvatar   = "avatar"

	// Customer
	FieldAge           = "age"
	FieldCustomerSince = "customerSince"
	FieldPhone         = "phone"
	FieldAddress       = "address"
)

// FieldsFor returns the editable field set of a record kind, in form order.
// The id field is never editable and is not included.
func FieldsFor(kind RecordKind) []string {
	switch kind {
	case KindProduct:
		return []string{FieldName, FieldPrice, FieldPromotionalPrice, FieldType, FieldDescription, FieldExpirationDate, FieldStock}
	case KindUser:
		return []string{FieldName, FieldEmail, FieldCPF, FieldPassword, FieldRole, FieldAvatar}
	case KindCustomer:
		return []string{FieldName, FieldEmail, FieldCPF, FieldAge, FieldCustomerSince, FieldPhone, FieldAddress}
	default:
		return nil
	}
}

// HasField reports whether field belongs to the kind's editable field set.
func HasField(kind RecordKind, field string) bool {
	for _, f := range FieldsFor(kind) {
		if f == field {
			return true
		}
	}
	return false
}
