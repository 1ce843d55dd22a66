package resources

import (
	"net/http"
	"time"

	"github.com/manyminds/api2go"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/records"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// User JSON:API Model
// =============================================================================

// User is the JSON:API representation of domain.User.
// Password is write-only: it is accepted on create and update and never
// rendered.
type User struct {
	ID        string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf"`
	Role      string    `json:"role"`
	RoleLabel string    `json:"role_label" openapi:"readonly"`
	Avatar    string    `json:"avatar,omitempty"`
	Password  string    `json:"password,omitempty" openapi:"writeonly"`
	CreatedAt time.Time `json:"created_at" openapi:"readonly"`
	UpdatedAt time.Time `json:"updated_at" openapi:"readonly"`
}

// GetID returns the user ID for JSON:API.
func (u User) GetID() string {
	return u.ID
}

// SetID sets the user ID for JSON:API.
func (u *User) SetID(id string) error {
	u.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (u User) GetName() string {
	return "users"
}

var userAttributes = map[string]string{
	domain.FieldName:     "name",
	domain.FieldEmail:    "email",
	domain.FieldCPF:      "cpf",
	domain.FieldRole:     "role",
	domain.FieldAvatar:   "avatar",
	domain.FieldPassword: "password",
}

// UserFromDomain converts a domain.User to a JSON:API User.
func UserFromDomain(u *domain.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CPF:       u.CPF,
		Role:      string(u.Role),
		RoleLabel: u.Role.Label(),
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u User) record() domain.Record {
	return domain.Record{
		domain.FieldID:       u.ID,
		domain.FieldName:     u.Name,
		domain.FieldEmail:    u.Email,
		domain.FieldCPF:      u.CPF,
		domain.FieldRole:     u.Role,
		domain.FieldAvatar:   u.Avatar,
		domain.FieldPassword: u.Password,
	}
}

// =============================================================================
// UserResource - CRUD Operations
// =============================================================================

// UserResource implements the api2go resource interface for users.
type UserResource struct {
	Store  store.Store
	Policy rules.Policy
}

// NewUserResource creates a new user resource handler.
func NewUserResource(s store.Store, policy rules.Policy) *UserResource {
	return &UserResource{Store: s, Policy: policy}
}

// FindAll returns users ordered by name.
// GET /api/v1/users
func (r UserResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	opts := listOptions(req)
	users, err := r.Store.ListUsers(req.PlainRequest.Context(), opts)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	result := make([]User, 0, len(users))
	for i := range users {
		result = append(result, UserFromDomain(&users[i]))
	}

	return &Response{Code: http.StatusOK, Res: result, Meta: listMeta(len(result), opts)}, nil
}

// FindOne returns a single user by ID.
// GET /api/v1/users/{id}
func (r UserResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	user, err := r.Store.GetUser(req.PlainRequest.Context(), id)
	if err != nil {
		return failure(err, "user", userAttributes)
	}
	return &Response{Code: http.StatusOK, Res: UserFromDomain(user)}, nil
}

// Create adds a user through an add-mode form session.
// POST /api/v1/users
// Auth: any staff member; only admins and managers may assign the admin role.
func (r UserResource) Create(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	actor, ok := actorFrom(req)
	if !ok {
		return unauthorized()
	}
	user, ok := obj.(User)
	if !ok {
		return badBody()
	}

	return r.write(req, records.Write{
		Kind:   domain.KindUser,
		Mode:   domain.ModeAdd,
		Values: user.record(),
		Actor:  actor,
	}, http.StatusCreated)
}

// Update edits a user through an edit-mode form session.
// An empty password keeps the current one.
// PATCH /api/v1/users/{id}
func (r UserResource) Update(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	actor, ok := actorFrom(req)
	if !ok {
		return unauthorized()
	}
	user, ok := obj.(User)
	if !ok {
		return badBody()
	}

	return r.write(req, records.Write{
		Kind:   domain.KindUser,
		Mode:   domain.ModeEdit,
		ID:     user.ID,
		Values: user.record(),
		Actor:  actor,
	}, http.StatusOK)
}

func (r UserResource) write(req api2go.Request, w records.Write, status int) (api2go.Responder, error) {
	ctx := req.PlainRequest.Context()
	w.Policy = r.Policy

	id, warnings, err := records.Apply(ctx, r.Store, w)
	if err != nil {
		return failure(err, "user", userAttributes)
	}

	stored, err := r.Store.GetUser(ctx, id)
	if err != nil {
		return failure(err, "user", userAttributes)
	}
	return &Response{Code: status, Res: UserFromDomain(stored), Meta: warningsMeta(warnings)}, nil
}

// Delete removes a user by ID.
// DELETE /api/v1/users/{id}
// Auth: nobody can delete themselves; deleting an admin takes an admin or manager.
func (r UserResource) Delete(id string, req api2go.Request) (api2go.Responder, error) {
	actor, ok := actorFrom(req)
	if !ok {
		return unauthorized()
	}
	ctx := req.PlainRequest.Context()

	target, err := r.Store.GetUser(ctx, id)
	if err != nil {
		return failure(err, "user", userAttributes)
	}

	if allowed, reason := auth.CanDeleteUser(actor, *target); !allowed {
		return &Response{Code: http.StatusForbidden}, httpError(http.StatusForbidden, reason)
	}

	if err := r.Store.DeleteUser(ctx, id); err != nil {
		return failure(err, "user", userAttributes)
	}
	return &Response{Code: http.StatusNoContent}, nil
}
