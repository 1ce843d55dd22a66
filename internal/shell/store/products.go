package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// productRow represents a product row in the database.
type productRow struct {
	ID               string          `db:"id"`
	Name             string          `db:"name"`
	Price            float64         `db:"price"`
	PromotionalPrice sql.NullFloat64 `db:"promotional_price"`
	Category         string          `db:"category"`
	Description      string          `db:"description"`
	ExpirationDate   string          `db:"expiration_date"`
	Stock            int             `db:"stock"`
	CreatedAt        string          `db:"created_at"`
	UpdatedAt        string          `db:"updated_at"`
}

func productParams(p *domain.Product) map[string]any {
	var promo any
	if p.PromotionalPrice != nil {
		promo = *p.PromotionalPrice
	}
	return map[string]any{
		"id":                p.ID,
		"name":              p.Name,
		"price":             p.Price,
		"promotional_price": promo,
		"category":          p.Category,
		"description":       p.Description,
		"expiration_date":   p.ExpirationDate,
		"stock":             p.Stock,
		"created_at":        p.CreatedAt.Format(time.RFC3339),
		"updated_at":        p.UpdatedAt.Format(time.RFC3339),
	}
}

func createProduct(ctx context.Context, exec executor, product *domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `
		INSERT INTO products (
			id, name, price, promotional_price, category, description,
			expiration_date, stock, created_at, updated_at
		) VALUES (
			:id, :name, :price, :promotional_price, :category, :description,
			:expiration_date, :stock, :created_at, :updated_at
		)`

	_, err := exec.NamedExecContext(ctx, query, productParams(product))
	if err != nil {
		if dup := uniqueViolation(err, "products"); dup != nil {
			return NewStoreError("CreateProduct", "product", product.ID, dup.Error(), dup)
		}
		return NewStoreError("CreateProduct", "product", product.ID, err.Error(), ErrInvalidData)
	}

	return nil
}

func getProduct(ctx context.Context, exec executor, id string) (*domain.Product, error) {
	query := `SELECT * FROM products WHERE id = ?`

	var row productRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetProduct", "product", id, "product not found", ErrNotFound)
		}
		return nil, NewStoreError("GetProduct", "product", id, err.Error(), err)
	}

	return rowToProduct(&row), nil
}

func updateProduct(ctx context.Context, exec executor, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		UPDATE products SET
			name = :name,
			price = :price,
			promotional_price = :promotional_price,
			category = :category,
			description = :description,
			expiration_date = :expiration_date,
			stock = :stock,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, productParams(product))
	if err != nil {
		return NewStoreError("UpdateProduct", "product", product.ID, err.Error(), ErrInvalidData)
	}

	return checkAffected(result, "UpdateProduct", "product", product.ID)
}

func setPromotion(ctx context.Context, exec executor, productID string, promo *float64) error {
	var value any
	if promo != nil {
		value = *promo
	}

	query := `UPDATE products SET promotional_price = ?, updated_at = ? WHERE id = ?`
	result, err := exec.ExecContext(ctx, query, value, time.Now().UTC().Format(time.RFC3339), productID)
	if err != nil {
		return NewStoreError("SetPromotion", "product", productID, err.Error(), ErrInvalidData)
	}

	return checkAffected(result, "SetPromotion", "product", productID)
}

func listProducts(ctx context.Context, exec executor, opts ListOptions) ([]domain.Product, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM products WHERE name LIKE ? ORDER BY name ASC LIMIT ? OFFSET ?`

	var rows []productRow
	err := exec.SelectContext(ctx, &rows, query, opts.pattern(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListProducts", "product", "", err.Error(), err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, *rowToProduct(&row))
	}

	return products, nil
}

// rowToProduct converts a database row to a domain.Product.
func rowToProduct(row *productRow) *domain.Product {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	var promo *float64
	if row.PromotionalPrice.Valid {
		v := row.PromotionalPrice.Float64
		promo = &v
	}

	return &domain.Product{
		ID:               row.ID,
		Name:             row.Name,
		Price:            row.Price,
		PromotionalPrice: promo,
		Category:         row.Category,
		Description:      row.Description,
		ExpirationDate:   row.ExpirationDate,
		Stock:            row.Stock,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}
