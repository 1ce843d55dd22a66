package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// customerRow represents a customer row in the database.
type customerRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Email         string `db:"email"`
	CPF           string `db:"cpf"`
	Age           int    `db:"age"`
	CustomerSince string `db:"customer_since"`
	Phone         string `db:"phone"`
	Address       string `db:"address"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

func customerParams(c *domain.Customer) map[string]any {
	return map[string]any{
		"id":             c.ID,
		"name":           c.Name,
		"email":          c.Email,
		"cpf":            c.CPF,
		"age":            c.Age,
		"customer_since": c.CustomerSince,
		"phone":          c.Phone,
		"address":        c.Address,
		"created_at":     c.CreatedAt.Format(time.RFC3339),
		"updated_at":     c.UpdatedAt.Format(time.RFC3339),
	}
}

func createCustomer(ctx context.Context, exec executor, customer *domain.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	customer.CreatedAt = now
	customer.UpdatedAt = now

	query := `
		INSERT INTO customers (
			id, name, email, cpf, age, customer_since, phone, address,
			created_at, updated_at
		) VALUES (
			:id, :name, :email, :cpf, :age, :customer_since, :phone, :address,
			:created_at, :updated_at
		)`

	_, err := exec.NamedExecContext(ctx, query, customerParams(customer))
	if err != nil {
		if dup := uniqueViolation(err, "customers"); dup != nil {
			return NewStoreError("CreateCustomer", "customer", customer.ID, dup.Error(), dup)
		}
		return NewStoreError("CreateCustomer", "customer", customer.ID, err.Error(), ErrInvalidData)
	}

	return nil
}

func getCustomer(ctx context.Context, exec executor, id string) (*domain.Customer, error) {
	query := `SELECT * FROM customers WHERE id = ?`

	var row customerRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetCustomer", "customer", id, "customer not found", ErrNotFound)
		}
		return nil, NewStoreError("GetCustomer", "customer", id, err.Error(), err)
	}

	return rowToCustomer(&row), nil
}

func updateCustomer(ctx context.Context, exec executor, customer *domain.Customer) error {
	customer.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		UPDATE customers SET
			name = :name,
			email = :email,
			cpf = :cpf,
			age = :age,
			customer_since = :customer_since,
			phone = :phone,
			address = :address,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, customerParams(customer))
	if err != nil {
		if dup := uniqueViolation(err, "customers"); dup != nil {
			return NewStoreError("UpdateCustomer", "customer", customer.ID, dup.Error(), dup)
		}
		return NewStoreError("UpdateCustomer", "customer", customer.ID, err.Error(), ErrInvalidData)
	}

	return checkAffected(result, "UpdateCustomer", "customer", customer.ID)
}

func listCustomers(ctx context.Context, exec executor, opts ListOptions) ([]domain.Customer, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM customers WHERE name LIKE ? ORDER BY name ASC LIMIT ? OFFSET ?`

	var rows []customerRow
	err := exec.SelectContext(ctx, &rows, query, opts.pattern(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListCustomers", "customer", "", err.Error(), err)
	}

	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, *rowToCustomer(&row))
	}

	return customers, nil
}

// rowToCustomer converts a database row to a domain.Customer.
func rowToCustomer(row *customerRow) *domain.Customer {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.Customer{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		CPF:           row.CPF,
		Age:           row.Age,
		CustomerSince: row.CustomerSince,
		Phone:         row.Phone,
		Address:       row.Address,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}
