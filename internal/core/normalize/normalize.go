// Package normalize turns raw form input into the canonical stored form of
// each field, and renders stored values back as masked display strings.
//
// This is part of the Functional Core - every function is total and pure.
// Normalizers never fail: invalid input is normalized as far as possible and
// left for the validators to reject.
package normalize

import (
	"strings"
	"unicode"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// Func normalizes a single raw field value.
type Func func(raw string) string

// =============================================================================
// Digits
// =============================================================================

// digitsOnly drops every non-digit rune.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// RemoveMask strips all punctuation from a masked value, leaving digits.
func RemoveMask(masked string) string {
	return digitsOnly(masked)
}

// =============================================================================
// Text Fields
// =============================================================================

// Identity returns the value unchanged.
func Identity(raw string) string { return raw }

// NormalizeText trims surrounding whitespace.
func NormalizeText(raw string) string {
	return strings.TrimSpace(raw)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeDecimal trims and accepts a decimal comma ("5,99" -> "5.99").
// Thousands separators are not supported.
func NormalizeDecimal(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

// NormalizeInteger trims and drops inner spaces ("1 200" -> "1200").
func NormalizeInteger(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// NormalizeRole maps a role label or wire value to the wire value.
// Unknown roles are returned trimmed so the validator can report them.
func NormalizeRole(raw string) string {
	if r, err := domain.ParseRole(raw); err == nil {
		return string(r)
	}
	return strings.TrimSpace(raw)
}

// =============================================================================
// Registry
// =============================================================================

// For returns the normalizer applied on every edit of a field.
// Free-text fields keep their raw value while typing; see Finalize.
func For(kind domain.RecordKind, field string) Func {
	switch field {
	case domain.FieldCPF:
		return NormalizeCPF
	case domain.FieldPhone:
		return NormalizePhone
	case domain.FieldEmail:
		return NormalizeEmail
	case domain.FieldPrice, domain.FieldPromotionalPrice:
		if kind == domain.KindProduct {
			return NormalizeDecimal
		}
	case domain.FieldStock, domain.FieldAge:
		return NormalizeInteger
	case domain.FieldRole:
		return NormalizeRole
	case domain.FieldExpirationDate, domain.FieldCustomerSince, domain.FieldAvatar:
		return NormalizeText
	}
	return Identity
}

// Record normalizes every field of r with its registered normalizer.
func Record(kind domain.RecordKind, r domain.Record) domain.Record {
	out := make(domain.Record, len(r))
	for field, v := range r {
		out[field] = For(kind, field)(v)
	}
	return out
}

// Finalize trims the free-text fields of an accepted record.
// Passwords are never touched.
func Finalize(kind domain.RecordKind, r domain.Record) domain.Record {
	out := r.Clone()
	for _, field := range []string{domain.FieldName, domain.FieldDescription, domain.FieldType, domain.FieldAddress} {
		if v, ok := out[field]; ok && domain.HasField(kind, field) {
			out[field] = NormalizeText(v)
		}
	}
	return out
}
