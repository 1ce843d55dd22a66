package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/shopdesk/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// Open database connection
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Every connection to :memory: is a separate database
	if dsn == MemoryDSN {
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Product Operations
// =============================================================================

func (s *SQLiteStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	return createProduct(ctx, s.db, product)
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return getProduct(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateProduct(ctx context.Context, product *domain.Product) error {
	return updateProduct(ctx, s.db, product)
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteProduct", "product", "products", id)
}

func (s *SQLiteStore) ListProducts(ctx context.Context, opts ListOptions) ([]domain.Product, error) {
	return listProducts(ctx, s.db, opts)
}

func (s *SQLiteStore) SetPromotion(ctx context.Context, productID string, promo *float64) error {
	return setPromotion(ctx, s.db, productID, promo)
}

// =============================================================================
// User Operations
// =============================================================================

func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.db, "id", id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUser(ctx, s.db, "email", email)
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.db, user)
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteUser", "user", "users", id)
}

func (s *SQLiteStore) ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error) {
	return listUsers(ctx, s.db, opts)
}

func (s *SQLiteStore) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	return authenticateUser(ctx, s.db, email, password)
}

// =============================================================================
// Customer Operations
// =============================================================================

func (s *SQLiteStore) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	return createCustomer(ctx, s.db, customer)
}

func (s *SQLiteStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return getCustomer(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	return updateCustomer(ctx, s.db, customer)
}

func (s *SQLiteStore) DeleteCustomer(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteCustomer", "customer", "customers", id)
}

func (s *SQLiteStore) ListCustomers(ctx context.Context, opts ListOptions) ([]domain.Customer, error) {
	return listCustomers(ctx, s.db, opts)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	return createProduct(ctx, s.tx, product)
}

func (s *txSQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return getProduct(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateProduct(ctx context.Context, product *domain.Product) error {
	return updateProduct(ctx, s.tx, product)
}

func (s *txSQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	return deleteRow(ctx, s.tx, "DeleteProduct", "product", "products", id)
}

func (s *txSQLiteStore) ListProducts(ctx context.Context, opts ListOptions) ([]domain.Product, error) {
	return listProducts(ctx, s.tx, opts)
}

func (s *txSQLiteStore) SetPromotion(ctx context.Context, productID string, promo *float64) error {
	return setPromotion(ctx, s.tx, productID, promo)
}

func (s *txSQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.tx, "id", id)
}

func (s *txSQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUser(ctx, s.tx, "email", email)
}

func (s *txSQLiteStore) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return deleteRow(ctx, s.tx, "DeleteUser", "user", "users", id)
}

func (s *txSQLiteStore) ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error) {
	return listUsers(ctx, s.tx, opts)
}

func (s *txSQLiteStore) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	return authenticateUser(ctx, s.tx, email, password)
}

func (s *txSQLiteStore) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	return createCustomer(ctx, s.tx, customer)
}

func (s *txSQLiteStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return getCustomer(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	return updateCustomer(ctx, s.tx, customer)
}

func (s *txSQLiteStore) DeleteCustomer(ctx context.Context, id string) error {
	return deleteRow(ctx, s.tx, "DeleteCustomer", "customer", "customers", id)
}

func (s *txSQLiteStore) ListCustomers(ctx context.Context, opts ListOptions) ([]domain.Customer, error) {
	return listCustomers(ctx, s.tx, opts)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Helpers
// =============================================================================

// deleteRow deletes by primary key. table is never user input.
func deleteRow(ctx context.Context, exec executor, op, entity, table, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return NewStoreError(op, entity, id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError(op, entity, id, entity+" not found", ErrNotFound)
	}

	return nil
}

func checkAffected(result sql.Result, op, entity, id string) error {
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError(op, entity, id, entity+" not found", ErrNotFound)
	}
	return nil
}
