package domain

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format of every date field (expirationDate, customerSince).
const DateLayout = "2006-01-02"

// =============================================================================
// Customer
// =============================================================================

// Customer is a registered shop customer.
type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	CPF           string    `json:"cpf"`
	Age           int       `json:"age"`
	CustomerSince string    `json:"customer_since"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToRecord converts the customer into its editable form.
func (c Customer) ToRecord() Record {
	return Record{
		FieldID:            c.ID,
		FieldName:          c.Name,
		FieldEmail:         c.Email,
		FieldCPF:           c.CPF,
		FieldAge:           strconv.Itoa(c.Age),
		FieldCustomerSince: c.CustomerSince,
		FieldPhone:         c.Phone,
		FieldAddress:       c.Address,
	}
}

// CustomerFromRecord converts a finalized record into a Customer.
func CustomerFromRecord(r Record) (Customer, error) {
	age, err := strconv.Atoi(r.Trimmed(FieldAge))
	if err != nil {
		return Customer{}, fmt.Errorf("%w: age: %v", ErrInvalidRecord, err)
	}
	return Customer{
		ID:            r.Trimmed(FieldID),
		Name:          r.Trimmed(FieldName),
		Email:         r.Trimmed(FieldEmail),
		CPF:           r.Trimmed(FieldCPF),
		Age:           age,
		CustomerSince: r.Trimmed(FieldCustomerSince),
		Phone:         r.Trimmed(FieldPhone),
		Address:       r.Trimmed(FieldAddress),
	}, nil
}

// =============================================================================
// Customer Tenure
// =============================================================================

// CustomerTenure describes how long someone has been a customer, counting
// calendar months between since and now (days are ignored).
//
// Example:
//
//	CustomerTenure(since, now) // "less than 1 month", "3 months", "2 years and 1 month"
func CustomerTenure(since, now time.Time) string {
	months := (now.Year()-since.Year())*12 + int(now.Month()) - int(since.Month())

	if months < 1 {
		return "less than 1 month"
	}
	if months < 12 {
		return plural(months, "month", "months")
	}

	years, rest := months/12, months%12
	if rest == 0 {
		return plural(years, "year", "years")
	}
	return plural(years, "year", "years") + " and " + plural(rest, "month", "months")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
