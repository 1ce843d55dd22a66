// Package validation provides pure field validators for back-office forms.
//
// This package contains the functional core checks that decide whether a
// single normalized field value is acceptable. All functions are pure (no I/O,
// no side effects). Record-level rules that combine several fields live in
// package rules.
//
// # Functions
//
//   - IsValidCPF / ValidateCPF: CPF length, repeated digits and mod-11 checksum
//   - IsValidEmail: email shape
//   - CheckPassword / PasswordStrengthMessage: five-point password strength
//   - CanApplyPromotion: promotional price against the base price
//   - IsISODate, IsAvatarImage: format checks
//
// # CPF Policy
//
// The CPF checksum is enforced by default. Building with the cpfrelaxed tag
// compiles in PolicyRelaxed, which only checks length and repeated digits:
//
//	go build -tags cpfrelaxed ./cmd/shopdesk
//
// # Usage
//
//	if allowed, reason := validation.CanApplyPromotion(price, promo); !allowed {
//	    // Return 422 with reason
//	}
package validation
