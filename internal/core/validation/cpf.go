package validation

import "github.com/artpar/shopdesk/internal/core/normalize"

// =============================================================================
// CPF Validation
// =============================================================================

// CPFPolicy selects how strictly CPF numbers are checked.
type CPFPolicy int

const (
	// PolicyStrict checks length, repeated digits and both verification digits.
	PolicyStrict CPFPolicy = iota
	// PolicyRelaxed checks length and repeated digits only.
	PolicyRelaxed
)

func (p CPFPolicy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyRelaxed:
		return "relaxed"
	default:
		return "unknown"
	}
}

// ActiveCPFPolicy reports the policy compiled into this binary.
func ActiveCPFPolicy() CPFPolicy {
	return activeCPFPolicy
}

// IsValidCPF validates a CPF (masked or not) under the compiled-in policy.
//
// Example:
//
//	IsValidCPF("529.982.247-25") // true
//	IsValidCPF("111.111.111-11") // false
func IsValidCPF(cpf string) bool {
	return ValidateCPF(cpf, activeCPFPolicy)
}

// ValidateCPF validates a CPF under an explicit policy.
func ValidateCPF(cpf string, policy CPFPolicy) bool {
	d := normalize.RemoveMask(cpf)
	if len(d) != 11 || allSame(d) {
		return false
	}
	if policy == PolicyRelaxed {
		return true
	}
	return checkDigit(d[:9], 10) == int(d[9]-'0') &&
		checkDigit(d[:10], 11) == int(d[10]-'0')
}

// checkDigit computes a mod-11 verification digit with weights running
// from weight down to 2.
func checkDigit(digits string, weight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	rest := 11 - sum%11
	if rest >= 10 {
		return 0
	}
	return rest
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
