package domain

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// Product
// =============================================================================

// Product is an item on sale. PromotionalPrice is nil when no promotion runs.
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	PromotionalPrice *float64  `json:"promotional_price,omitempty"`
	Category         string    `json:"type"`
	Description      string    `json:"description"`
	ExpirationDate   string    `json:"expiration_date"`
	Stock            int       `json:"stock"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// EffectivePrice returns the promotional price when one is set.
func (p Product) EffectivePrice() float64 {
	if p.PromotionalPrice != nil {
		return *p.PromotionalPrice
	}
	return p.Price
}

// ToRecord converts the product into its editable form.
func (p Product) ToRecord() Record {
	r := Record{
		FieldID:               p.ID,
		FieldName:             p.Name,
		FieldPrice:            FormatDecimal(p.Price),
		FieldPromotionalPrice: "",
		FieldType:             p.Category,
		FieldDescription:      p.Description,
		FieldExpirationDate:   p.ExpirationDate,
		FieldStock:            strconv.Itoa(p.Stock),
	}
	if p.PromotionalPrice != nil {
		r[FieldPromotionalPrice] = FormatDecimal(*p.PromotionalPrice)
	}
	return r
}

// ProductFromRecord converts a finalized record into a Product.
// Numeric fields must already be valid; this does not re-run form rules.
func ProductFromRecord(r Record) (Product, error) {
	p := Product{
		ID:             r.Trimmed(FieldID),
		Name:           r.Trimmed(FieldName),
		Category:       r.Trimmed(FieldType),
		Description:    r.Trimmed(FieldDescription),
		ExpirationDate: r.Trimmed(FieldExpirationDate),
	}

	price, err := strconv.ParseFloat(r.Trimmed(FieldPrice), 64)
	if err != nil {
		return Product{}, fmt.Errorf("%w: price: %v", ErrInvalidRecord, err)
	}
	p.Price = price

	if !r.Blank(FieldPromotionalPrice) {
		promo, err := strconv.ParseFloat(r.Trimmed(FieldPromotionalPrice), 64)
		if err != nil {
			return Product{}, fmt.Errorf("%w: promotionalPrice: %v", ErrInvalidRecord, err)
		}
		p.PromotionalPrice = &promo
	}

	if !r.Blank(FieldStock) {
		stock, err := strconv.Atoi(r.Trimmed(FieldStock))
		if err != nil {
			return Product{}, fmt.Errorf("%w: stock: %v", ErrInvalidRecord, err)
		}
		p.Stock = stock
	}

	return p, nil
}

// FormatDecimal renders a price without trailing zeros ("5.99", "28.9").
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
