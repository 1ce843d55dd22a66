package store

import (
	"context"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for back-office entities.
// It only accepts records that already passed the form rules.
type Store interface {
	// Product operations
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, opts ListOptions) ([]domain.Product, error)

	// SetPromotion sets or, with nil, clears a product's promotional price.
	SetPromotion(ctx context.Context, productID string, promo *float64) error

	// User operations. Passwords are hashed by the store; an empty password
	// on update keeps the stored hash.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error)

	// AuthenticateUser checks an email and password pair.
	AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error)

	// Customer operations
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer *domain.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	ListCustomers(ctx context.Context, opts ListOptions) ([]domain.Customer, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int

	// Search filters by a case-insensitive substring of the name.
	Search string
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// pattern returns the LIKE pattern for Search.
func (o ListOptions) pattern() string {
	return "%" + o.Search + "%"
}
