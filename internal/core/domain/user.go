package domain

import (
	"fmt"
	"time"
)

// =============================================================================
// User
// =============================================================================

// User is an employee with access to the back office.
//
// Password only carries a plaintext value between a submitted form and the
// store, which hashes it into PasswordHash. Neither is ever serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	CPF          string    `json:"cpf"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	Password     string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToRecord converts the user into its editable form.
// The password is never part of it.
func (u User) ToRecord() Record {
	return Record{
		FieldID:     u.ID,
		FieldName:   u.Name,
		FieldEmail:  u.Email,
		FieldCPF:    u.CPF,
		FieldRole:   string(u.Role),
		FieldAvatar: u.Avatar,
	}
}

// UserFromRecord converts a finalized record into a User.
func UserFromRecord(r Record) (User, error) {
	role, err := ParseRole(r[FieldRole])
	if err != nil {
		return User{}, fmt.Errorf("%w: role: %v", ErrInvalidRecord, err)
	}
	return User{
		ID:       r.Trimmed(FieldID),
		Name:     r.Trimmed(FieldName),
		Email:    r.Trimmed(FieldEmail),
		CPF:      r.Trimmed(FieldCPF),
		Role:     role,
		Avatar:   r.Trimmed(FieldAvatar),
		Password: r[FieldPassword],
	}, nil
}
