package validation

import (
	"strings"
)

// =============================================================================
// Password Strength
// =============================================================================

const (
	// MinPasswordLength is the minimum number of characters in a password.
	MinPasswordLength = 8

	// PasswordSpecialChars is the set of characters that count as special.
	PasswordSpecialChars = `!@#$%^&*(),.?":{}|<>`

	// StrongPasswordMessage is reported when every requirement passes.
	StrongPasswordMessage = "strong password"
)

// PasswordStrength is a report of the five password requirements.
// It is recomputed on every call and never stored.
type PasswordStrength struct {
	MeetsMinLength bool `json:"meets_min_length"`
	HasUpper       bool `json:"has_upper"`
	HasLower       bool `json:"has_lower"`
	HasDigit       bool `json:"has_digit"`
	HasSpecial     bool `json:"has_special"`
	IsValid        bool `json:"is_valid"`
}

// CheckPassword evaluates a password against the five requirements.
// Length counts characters, not bytes. Letters and digits are ASCII only:
// "É" is not an uppercase letter and "٣" is not a number.
func CheckPassword(password string) PasswordStrength {
	var s PasswordStrength
	s.MeetsMinLength = len([]rune(password)) >= MinPasswordLength
	for _, r := range password {
		switch {
		case 'A' <= r && r <= 'Z':
			s.HasUpper = true
		case 'a' <= r && r <= 'z':
			s.HasLower = true
		case '0' <= r && r <= '9':
			s.HasDigit = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			s.HasSpecial = true
		}
	}
	s.IsValid = s.MeetsMinLength && s.HasUpper && s.HasLower && s.HasDigit && s.HasSpecial
	return s
}

// Missing lists the failing requirements in a fixed order.
func (s PasswordStrength) Missing() []string {
	var missing []string
	if !s.MeetsMinLength {
		missing = append(missing, "at least 8 characters")
	}
	if !s.HasUpper {
		missing = append(missing, "an uppercase letter")
	}
	if !s.HasLower {
		missing = append(missing, "a lowercase letter")
	}
	if !s.HasDigit {
		missing = append(missing, "a number")
	}
	if !s.HasSpecial {
		missing = append(missing, "a special character")
	}
	return missing
}

// PasswordStrengthMessage describes what a password still lacks.
// An empty password yields an empty message.
//
// Example:
//
//	PasswordStrengthMessage("abc") // "missing: at least 8 characters, an uppercase letter, a number, a special character"
func PasswordStrengthMessage(password string) string {
	if password == "" {
		return ""
	}
	missing := CheckPassword(password).Missing()
	if len(missing) == 0 {
		return StrongPasswordMessage
	}
	return "missing: " + strings.Join(missing, ", ")
}
