package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/store"
)

func setupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(store.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// =============================================================================
// Fixture Loading Tests
// =============================================================================

func TestLoadFile_DefaultFixtures(t *testing.T) {
	fx, err := LoadFile("")
	require.NoError(t, err)

	assert.Len(t, fx.Products, 3)
	assert.Len(t, fx.Users, 3)
	assert.Len(t, fx.Customers, 3)
	assert.Equal(t, "24.9", fx.Products[1][domain.FieldPromotionalPrice])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("products: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/nonexistent/fixtures.yaml")
	assert.Error(t, err)
}

// =============================================================================
// Seeder Tests
// =============================================================================

func TestSeed_DefaultFixturesAreValid(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	fx, err := LoadFile("")
	require.NoError(t, err)

	res, err := NewSeeder(s, rules.DefaultPolicy(), nil).Seed(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, Result{Products: 3, Users: 3, Customers: 3}, res)

	products, err := s.ListProducts(ctx, store.DefaultListOptions())
	require.NoError(t, err)
	promos := 0
	for _, p := range products {
		if p.PromotionalPrice != nil {
			promos++
		}
	}
	assert.Equal(t, 1, promos)

	ana, err := s.AuthenticateUser(ctx, "ana@super.com", "Gerente@2024")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, ana.Role)
	assert.Equal(t, "12345678909", ana.CPF)

	customers, err := s.ListCustomers(ctx, store.ListOptions{Search: "Carla"})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "11987654321", customers[0].Phone)
}

func TestSeed_SkipsNonEmptyTables(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	fx, err := LoadFile("")
	require.NoError(t, err)

	seeder := NewSeeder(s, rules.DefaultPolicy(), nil)
	_, err = seeder.Seed(ctx, fx)
	require.NoError(t, err)

	res, err := seeder.Seed(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestSeed_CollectsRejectedFixtures(t *testing.T) {
	s := setupTestStore(t)
	fx := &Fixtures{
		Products: []domain.Record{
			{domain.FieldName: "Sem preço", domain.FieldType: "x", domain.FieldDescription: "y", domain.FieldExpirationDate: "2025-01-01"},
			{domain.FieldName: "Ok", domain.FieldPrice: "1", domain.FieldType: "x", domain.FieldDescription: "y", domain.FieldExpirationDate: "2025-01-01"},
		},
		Customers: []domain.Record{
			{domain.FieldName: "Z", "color": "blue"},
		},
	}

	res, err := NewSeeder(s, rules.DefaultPolicy(), nil).Seed(context.Background(), fx)
	require.Error(t, err)
	assert.Equal(t, 1, res.Products)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)

	var rejected *RejectedError
	require.True(t, errors.As(errs[0], &rejected))
	assert.True(t, rejected.Errors.Has(domain.FieldPrice))
	assert.Contains(t, errs[0].Error(), "products[0]")
	assert.Contains(t, errs[1].Error(), "customers[0]")
}
