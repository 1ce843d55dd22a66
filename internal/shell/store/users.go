package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// hashCost is the bcrypt cost for new password hashes.
var hashCost = bcrypt.DefaultCost

// userRow represents a user row in the database.
type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	CPF          string `db:"cpf"`
	Role         string `db:"role"`
	Avatar       string `db:"avatar"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

// hashPassword moves a plaintext password into PasswordHash.
func hashPassword(user *domain.User) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), hashCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.Password = ""
	return nil
}

func userParams(u *domain.User) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"cpf":           u.CPF,
		"role":          string(u.Role),
		"avatar":        u.Avatar,
		"password_hash": u.PasswordHash,
		"created_at":    u.CreatedAt.Format(time.RFC3339),
		"updated_at":    u.UpdatedAt.Format(time.RFC3339),
	}
}

func createUser(ctx context.Context, exec executor, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Password == "" {
		return NewStoreError("CreateUser", "user", user.ID, "password is required", ErrInvalidData)
	}
	if err := hashPassword(user); err != nil {
		return NewStoreError("CreateUser", "user", user.ID, "failed to hash password", ErrInvalidData)
	}
	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (
			id, name, email, cpf, role, avatar, password_hash, created_at, updated_at
		) VALUES (
			:id, :name, :email, :cpf, :role, :avatar, :password_hash, :created_at, :updated_at
		)`

	_, err := exec.NamedExecContext(ctx, query, userParams(user))
	if err != nil {
		if dup := uniqueViolation(err, "users"); dup != nil {
			return NewStoreError("CreateUser", "user", user.ID, dup.Error(), dup)
		}
		return NewStoreError("CreateUser", "user", user.ID, err.Error(), ErrInvalidData)
	}

	return nil
}

// getUser looks a user up by a unique column. column is never user input.
func getUser(ctx context.Context, exec executor, column, value string) (*domain.User, error) {
	query := `SELECT * FROM users WHERE ` + column + ` = ?`

	var row userRow
	err := exec.GetContext(ctx, &row, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUser", "user", value, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUser", "user", value, err.Error(), err)
	}

	return rowToUser(&row), nil
}

func updateUser(ctx context.Context, exec executor, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		UPDATE users SET
			name = :name,
			email = :email,
			cpf = :cpf,
			role = :role,
			avatar = :avatar,
			updated_at = :updated_at
		WHERE id = :id`

	if user.Password != "" {
		if err := hashPassword(user); err != nil {
			return NewStoreError("UpdateUser", "user", user.ID, "failed to hash password", ErrInvalidData)
		}
		query = `
		UPDATE users SET
			name = :name,
			email = :email,
			cpf = :cpf,
			role = :role,
			avatar = :avatar,
			password_hash = :password_hash,
			updated_at = :updated_at
		WHERE id = :id`
	}

	result, err := exec.NamedExecContext(ctx, query, userParams(user))
	if err != nil {
		if dup := uniqueViolation(err, "users"); dup != nil {
			return NewStoreError("UpdateUser", "user", user.ID, dup.Error(), dup)
		}
		return NewStoreError("UpdateUser", "user", user.ID, err.Error(), ErrInvalidData)
	}

	return checkAffected(result, "UpdateUser", "user", user.ID)
}

func listUsers(ctx context.Context, exec executor, opts ListOptions) ([]domain.User, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM users WHERE name LIKE ? ORDER BY name ASC LIMIT ? OFFSET ?`

	var rows []userRow
	err := exec.SelectContext(ctx, &rows, query, opts.pattern(), opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListUsers", "user", "", err.Error(), err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, *rowToUser(&row))
	}

	return users, nil
}

func authenticateUser(ctx context.Context, exec executor, email, password string) (*domain.User, error) {
	user, err := getUser(ctx, exec, "email", email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewStoreError("AuthenticateUser", "user", "", "invalid email or password", ErrInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewStoreError("AuthenticateUser", "user", "", "invalid email or password", ErrInvalidCredentials)
	}

	return user, nil
}

// rowToUser converts a database row to a domain.User.
func rowToUser(row *userRow) *domain.User {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		CPF:          row.CPF,
		Role:         domain.Role(row.Role),
		Avatar:       row.Avatar,
		PasswordHash: row.PasswordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}
