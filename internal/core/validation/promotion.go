package validation

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// =============================================================================
// Promotion Validation
// =============================================================================

// CanApplyPromotion checks if a promotional price can be applied to a product.
// The promotion must be positive and strictly below the base price.
// Returns whether the promotion is allowed and a reason if not.
//
// Example:
//
//	allowed, reason := CanApplyPromotion(28.90, 24.90)
//	if !allowed {
//	    // Return 422 with reason
//	}
func CanApplyPromotion(price, promo float64) (allowed bool, reason string) {
	if !isFinite(price) || !isFinite(promo) {
		return false, "prices must be numbers"
	}
	if promo <= 0 {
		return false, "promotional price must be greater than 0"
	}
	if promo >= price {
		return false, fmt.Sprintf("promotional price must be lower than the base price (%s)", formatPrice(price))
	}
	return true, ""
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// =============================================================================
// Format Validation
// =============================================================================

// IsISODate checks for a calendar date in YYYY-MM-DD form.
func IsISODate(s string) bool {
	if len(s) != len(domain.DateLayout) {
		return false
	}
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

// IsAvatarImage accepts a data:image/... URI or an http(s) URL.
// Upload handling stays in the shell; this only checks what gets stored.
func IsAvatarImage(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return strings.Contains(s, ",")
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
