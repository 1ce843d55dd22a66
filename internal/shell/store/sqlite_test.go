package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

func init() {
	hashCost = bcrypt.MinCost
}

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func price(v float64) *float64 { return &v }

func createTestProduct(t *testing.T, store Store, name string) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:           name,
		Price:          10.5,
		Category:       "Mercearia",
		Description:    "Produto de teste",
		ExpirationDate: "2025-12-31",
		Stock:          3,
	}
	require.NoError(t, store.CreateProduct(context.Background(), product))
	return product
}

func createTestUser(t *testing.T, store Store, email, cpf string) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:     "Ana Souza",
		Email:    email,
		CPF:      cpf,
		Role:     domain.RoleSalesperson,
		Password: "Abcdef1!",
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

// =============================================================================
// Product Tests
// =============================================================================

func TestProduct_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created := createTestProduct(t, store, "Arroz 5kg")
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arroz 5kg", got.Name)
	assert.Equal(t, 10.5, got.Price)
	assert.Nil(t, got.PromotionalPrice)
	assert.Equal(t, 3, got.Stock)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestProduct_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "GetProduct", storeErr.Op)
	assert.Equal(t, "missing", storeErr.ID)
}

func TestProduct_DuplicateID(t *testing.T) {
	store := setupTestStore(t)
	p := createTestProduct(t, store, "Arroz")

	dup := *p
	err := store.CreateProduct(context.Background(), &dup)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestProduct_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	p := createTestProduct(t, store, "Arroz")

	p.Name = "Arroz Integral"
	p.PromotionalPrice = price(9.9)
	require.NoError(t, store.UpdateProduct(ctx, p))

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arroz Integral", got.Name)
	require.NotNil(t, got.PromotionalPrice)
	assert.Equal(t, 9.9, *got.PromotionalPrice)
}

func TestProduct_UpdateNotFound(t *testing.T) {
	store := setupTestStore(t)
	err := store.UpdateProduct(context.Background(), &domain.Product{ID: "missing", Price: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProduct_SetPromotion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	p := createTestProduct(t, store, "Arroz")

	require.NoError(t, store.SetPromotion(ctx, p.ID, price(8.5)))
	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PromotionalPrice)
	assert.Equal(t, 8.5, *got.PromotionalPrice)
	assert.Equal(t, 8.5, got.EffectivePrice())

	require.NoError(t, store.SetPromotion(ctx, p.ID, nil))
	got, err = store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PromotionalPrice)

	assert.ErrorIs(t, store.SetPromotion(ctx, "missing", nil), ErrNotFound)
}

func TestProduct_ListAndSearch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestProduct(t, store, "Feijão Preto")
	createTestProduct(t, store, "Arroz Branco")
	createTestProduct(t, store, "Feijão Carioca")

	all, err := store.ListProducts(ctx, DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Arroz Branco", all[0].Name)

	found, err := store.ListProducts(ctx, ListOptions{Search: "feij"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	page, err := store.ListProducts(ctx, ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Feijão Carioca", page[0].Name)
}

func TestProduct_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	p := createTestProduct(t, store, "Arroz")

	require.NoError(t, store.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, store.DeleteProduct(ctx, p.ID), ErrNotFound)
}

// =============================================================================
// User Tests
// =============================================================================

func TestUser_CreateHashesPassword(t *testing.T) {
	store := setupTestStore(t)
	u := createTestUser(t, store, "ana@loja.com", "52998224725")

	assert.Empty(t, u.Password)
	assert.NotEqual(t, "Abcdef1!", u.PasswordHash)

	got, err := store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSalesperson, got.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("Abcdef1!")))
}

func TestUser_CreateRequiresPassword(t *testing.T) {
	store := setupTestStore(t)
	err := store.CreateUser(context.Background(), &domain.User{Name: "Ana", Email: "a@b.c", CPF: "52998224725", Role: domain.RoleCashier})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestUser_DuplicateEmailAndCPF(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "ana@loja.com", "52998224725")

	err := store.CreateUser(ctx, &domain.User{Name: "B", Email: "ana@loja.com", CPF: "11144477735", Role: domain.RoleCashier, Password: "Abcdef1!"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	err = store.CreateUser(ctx, &domain.User{Name: "B", Email: "b@loja.com", CPF: "52998224725", Role: domain.RoleCashier, Password: "Abcdef1!"})
	assert.ErrorIs(t, err, ErrDuplicateCPF)
}

func TestUser_UpdateKeepsPasswordWhenEmpty(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, store, "ana@loja.com", "52998224725")

	require.NoError(t, store.UpdateUser(ctx, &domain.User{ID: u.ID, Name: "Ana Lima", Email: u.Email, CPF: u.CPF, Role: domain.RoleManager}))

	got, err := store.AuthenticateUser(ctx, "ana@loja.com", "Abcdef1!")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", got.Name)
	assert.Equal(t, domain.RoleManager, got.Role)
}

func TestUser_UpdateChangesPassword(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, store, "ana@loja.com", "52998224725")

	require.NoError(t, store.UpdateUser(ctx, &domain.User{ID: u.ID, Name: u.Name, Email: u.Email, CPF: u.CPF, Role: u.Role, Password: "Xyz12345!"}))

	_, err := store.AuthenticateUser(ctx, "ana@loja.com", "Abcdef1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = store.AuthenticateUser(ctx, "ana@loja.com", "Xyz12345!")
	assert.NoError(t, err)
}

func TestUser_AuthenticateUnknownEmail(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.AuthenticateUser(context.Background(), "nobody@loja.com", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUser_GetByEmailAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, store, "ana@loja.com", "52998224725")
	createTestUser(t, store, "bia@loja.com", "11144477735")

	got, err := store.GetUserByEmail(ctx, "ana@loja.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	users, err := store.ListUsers(ctx, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, store.DeleteUser(ctx, u.ID))
	_, err = store.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// =============================================================================
// Customer Tests
// =============================================================================

func TestCustomer_CRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	c := &domain.Customer{Name: "Carla", Email: "carla@mail.com", CPF: "11144477735", Age: 34, CustomerSince: "2022-06-01", Phone: "11987654321"}
	require.NoError(t, store.CreateCustomer(ctx, c))

	c.Address = "Rua das Flores, 10"
	require.NoError(t, store.UpdateCustomer(ctx, c))

	got, err := store.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rua das Flores, 10", got.Address)
	assert.Equal(t, 34, got.Age)

	dup := &domain.Customer{Name: "Outra", Email: "o@mail.com", CPF: "11144477735", Age: 20, CustomerSince: "2023-01-01"}
	assert.ErrorIs(t, store.CreateCustomer(ctx, dup), ErrDuplicateCPF)

	list, err := store.ListCustomers(ctx, ListOptions{Search: "car"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteCustomer(ctx, c.ID))
	assert.ErrorIs(t, store.DeleteCustomer(ctx, c.ID), ErrNotFound)
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_Commit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		return tx.CreateProduct(ctx, &domain.Product{Name: "A", Price: 1, Category: "x", Description: "y", ExpirationDate: "2025-01-01"})
	})
	require.NoError(t, err)

	list, err := store.ListProducts(ctx, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateProduct(ctx, &domain.Product{Name: "A", Price: 1, Category: "x", Description: "y", ExpirationDate: "2025-01-01"}); err != nil {
			return err
		}
		return tx.WithTx(ctx, func(inner Store) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	list, err := store.ListProducts(ctx, DefaultListOptions())
	require.NoError(t, err)
	assert.Empty(t, list)
}

// =============================================================================
// Options and Error Tests
// =============================================================================

func TestListOptions_Normalize(t *testing.T) {
	assert.Equal(t, ListOptions{Limit: 100}, ListOptions{}.Normalize())
	assert.Equal(t, ListOptions{Limit: 1000}, ListOptions{Limit: 5000, Offset: -1}.Normalize())
}

func TestStoreError_Format(t *testing.T) {
	err := NewStoreError("GetUser", "user", "u-1", "user not found", ErrNotFound)
	assert.Equal(t, "GetUser user u-1: user not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "WithTx: failed", NewStoreError("WithTx", "", "", "failed", ErrTxFailed).Error())
}
