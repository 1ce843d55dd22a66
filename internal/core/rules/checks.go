package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/normalize"
	"github.com/artpar/shopdesk/internal/core/validation"
)

type checker struct {
	in       Input
	errors   domain.FieldErrors
	warnings domain.FieldErrors
}

func (c *checker) outcome() Outcome {
	return Outcome{Errors: c.errors, Warnings: c.warnings}
}

func (c *checker) fail(field, message string) {
	if !c.errors.Has(field) {
		c.errors[field] = message
	}
}

func (c *checker) value(field string) string {
	return c.in.Record.Trimmed(field)
}

// required reports whether the field is mandatory and blank, recording the
// error. In edit mode a field absent from the record is kept as stored and
// is not required.
func (c *checker) required(field string) bool {
	if c.in.Mode == domain.ModeEdit && !c.in.Record.Has(field) {
		return false
	}
	if c.in.Record.Blank(field) {
		c.fail(field, field+" is required")
		return true
	}
	return false
}

// present reports whether a mandatory field has a value to check further.
func (c *checker) present(field string) bool {
	return !c.required(field) && !c.in.Record.Blank(field)
}

// =============================================================================
// Product Rules
// =============================================================================

func (c *checker) product() {
	c.required(domain.FieldName)
	c.required(domain.FieldType)
	c.required(domain.FieldDescription)

	price, priceOK := c.positiveDecimal(domain.FieldPrice)

	if c.present(domain.FieldExpirationDate) && !validation.IsISODate(c.value(domain.FieldExpirationDate)) {
		c.fail(domain.FieldExpirationDate, "expirationDate must be a date (YYYY-MM-DD)")
	}

	if !c.in.Record.Blank(domain.FieldStock) {
		c.nonNegativeInt(domain.FieldStock)
	}

	if c.checksPromotion() {
		c.promotion(price, priceOK)
	}
}

// checksPromotion reports whether the buffered promotional price is kept on
// submit: it was set by a privileged actor, or it is the stored value of an
// edited product.
func (c *checker) checksPromotion() bool {
	field := domain.FieldPromotionalPrice
	if c.in.Record.Blank(field) {
		return false
	}
	if auth.CanSetPromotionalPrice(c.in.Actor) {
		return true
	}
	return c.in.Mode == domain.ModeEdit && c.value(field) == c.in.Original.Trimmed(field)
}

// parseDecimal parses a finite decimal. NaN and infinities are rejected.
func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (c *checker) positiveDecimal(field string) (float64, bool) {
	if !c.present(field) {
		return 0, false
	}
	v, ok := parseDecimal(c.value(field))
	if !ok {
		c.fail(field, field+" must be a number")
		return 0, false
	}
	if v <= 0 {
		c.fail(field, field+" must be greater than 0")
		return 0, false
	}
	return v, true
}

// promotion checks the promotional price against the base price. An actor
// who cannot change the promotion gets the violation on the price instead.
func (c *checker) promotion(price float64, priceOK bool) {
	field := domain.FieldPromotionalPrice
	promo, ok := parseDecimal(c.value(field))
	if !ok {
		c.fail(field, field+" must be a number")
		return
	}
	if promo <= 0 {
		c.fail(field, field+" must be greater than 0")
		return
	}
	if !priceOK {
		price = c.originalPrice()
		if price <= 0 {
			return
		}
	}
	if allowed, reason := validation.CanApplyPromotion(price, promo); !allowed {
		if !auth.CanSetPromotionalPrice(c.in.Actor) {
			field = domain.FieldPrice
			reason = "price must be greater than the promotional price (" + domain.FormatDecimal(promo) + ")"
		}
		if c.in.Policy.PromotionBelowBaseIsBlocking {
			c.fail(field, reason)
		} else {
			c.warnings[field] = reason
		}
	}
}

// originalPrice is used when an edit payload omits the price.
func (c *checker) originalPrice() float64 {
	if c.in.Record.Has(domain.FieldPrice) {
		return 0
	}
	v, ok := parseDecimal(c.in.Original.Trimmed(domain.FieldPrice))
	if !ok {
		return 0
	}
	return v
}

func (c *checker) nonNegativeInt(field string) {
	v, err := strconv.Atoi(c.value(field))
	if err != nil {
		c.fail(field, field+" must be a whole number")
		return
	}
	if v < 0 {
		c.fail(field, field+" cannot be negative")
	}
}

// =============================================================================
// User Rules
// =============================================================================

func (c *checker) user() {
	c.required(domain.FieldName)
	c.email()
	c.cpf()
	c.role()
	c.password()

	if avatar := c.value(domain.FieldAvatar); avatar != "" && !validation.IsAvatarImage(avatar) {
		c.fail(domain.FieldAvatar, "avatar must be an image")
	}
}

func (c *checker) email() {
	if c.present(domain.FieldEmail) && !validation.IsValidEmail(c.value(domain.FieldEmail)) {
		c.fail(domain.FieldEmail, "email must be a valid email address")
	}
}

func (c *checker) cpf() {
	if c.present(domain.FieldCPF) && !validation.IsValidCPF(c.value(domain.FieldCPF)) {
		c.fail(domain.FieldCPF, "cpf is invalid")
	}
}

func (c *checker) role() {
	if !c.present(domain.FieldRole) {
		return
	}
	value := c.value(domain.FieldRole)
	if value == c.in.Original.Trimmed(domain.FieldRole) {
		return
	}
	role, err := domain.ParseRole(value)
	if err != nil {
		c.fail(domain.FieldRole, "role must be one of: "+roleList(auth.AllowedRoles(c.in.Actor)))
		return
	}
	if !auth.CanAssignRole(c.in.Actor, role) {
		c.fail(domain.FieldRole, "you are not allowed to assign the "+string(role)+" role")
	}
}

func roleList(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// password is required and strong in add mode. In edit mode an empty
// password means "unchanged".
func (c *checker) password() {
	pw := c.in.Record[domain.FieldPassword]
	if pw == "" {
		if c.in.Mode == domain.ModeAdd {
			c.fail(domain.FieldPassword, "password is required")
		}
		return
	}
	if !validation.CheckPassword(pw).IsValid {
		c.fail(domain.FieldPassword, "password is too weak ("+validation.PasswordStrengthMessage(pw)+")")
	}
}

// =============================================================================
// Customer Rules
// =============================================================================

func (c *checker) customer() {
	c.required(domain.FieldName)
	c.email()
	c.cpf()

	if c.present(domain.FieldAge) {
		age, err := strconv.Atoi(c.value(domain.FieldAge))
		switch {
		case err != nil:
			c.fail(domain.FieldAge, "age must be a whole number")
		case age < 1:
			c.fail(domain.FieldAge, "age must be at least 1")
		}
	}

	if c.present(domain.FieldCustomerSince) && !validation.IsISODate(c.value(domain.FieldCustomerSince)) {
		c.fail(domain.FieldCustomerSince, "customerSince must be a date (YYYY-MM-DD)")
	}

	if phone := c.value(domain.FieldPhone); phone != "" {
		if n := len(normalize.RemoveMask(phone)); n != 10 && n != 11 {
			c.fail(domain.FieldPhone, "phone must have 10 or 11 digits")
		}
	}
}
