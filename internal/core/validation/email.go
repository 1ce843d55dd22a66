package validation

import "regexp"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail checks the shape local@domain.tld. It does not resolve the domain.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
