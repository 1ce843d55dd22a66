package api

import (
	"time"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/validation"
)

// =============================================================================
// Request Types
// =============================================================================

// OpenFormRequest is the request body for opening a form session.
// RecordID is required for edit and view.
type OpenFormRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=product user customer"`
	Mode     string `json:"mode" validate:"required,oneof=add edit view"`
	RecordID string `json:"record_id,omitempty" validate:"omitempty,max=64"`
}

// ChangeFieldRequest is one edit event.
type ChangeFieldRequest struct {
	Field string `json:"field" validate:"required,max=64"`
	Value string `json:"value" validate:"max=1048576"`
}

// CheckRequest carries a single value to check.
type CheckRequest struct {
	Value string `json:"value" validate:"max=4096"`
}

// LoginRequest is the request body for token login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// =============================================================================
// Response Types
// =============================================================================

// FormResponse is the state of a form session as the UI renders it.
// Values are display values: CPF and phone masked, password omitted.
type FormResponse struct {
	ID               string                       `json:"id"`
	Kind             string                       `json:"kind"`
	Mode             string                       `json:"mode"`
	State            string                       `json:"state"`
	RecordID         string                       `json:"record_id,omitempty"`
	Values           domain.Record                `json:"values"`
	FieldErrors      domain.FieldErrors           `json:"field_errors"`
	Warnings         domain.FieldErrors           `json:"warnings,omitempty"`
	Editable         map[string]bool              `json:"editable"`
	PasswordStrength *validation.PasswordStrength `json:"password_strength,omitempty"`
}

// SubmitResponse is returned when a form session is accepted.
type SubmitResponse struct {
	RecordID string             `json:"record_id"`
	Kind     string             `json:"kind"`
	Mode     string             `json:"mode"`
	Values   domain.Record      `json:"values"`
	Warnings domain.FieldErrors `json:"warnings,omitempty"`
}

// CPFCheckResponse reports on a CPF input.
type CPFCheckResponse struct {
	Valid  bool   `json:"valid"`
	Digits string `json:"digits"`
	Masked string `json:"masked"`
	Policy string `json:"policy"`
}

// EmailCheckResponse reports on an email input.
type EmailCheckResponse struct {
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized"`
}

// PasswordCheckResponse reports password strength.
type PasswordCheckResponse struct {
	validation.PasswordStrength
	Message string `json:"message"`
}

// LoginResponse carries a bearer token.
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Actor     auth.Actor `json:"actor"`
}

// MeResponse describes the acting user and what they may do.
type MeResponse struct {
	Actor                  auth.Actor `json:"actor"`
	AllowedRoles           []string   `json:"allowed_roles"`
	CanSetPromotionalPrice bool       `json:"can_set_promotional_price"`
	CanGrantAdmin          bool       `json:"can_grant_admin"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error       string            `json:"error"`
	Code        string            `json:"code"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
