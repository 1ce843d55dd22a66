package resources

import (
	"net/http"
	"strconv"
	"time"

	"github.com/manyminds/api2go"

	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/records"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// Customer JSON:API Model
// =============================================================================

// Customer is the JSON:API representation of domain.Customer.
// Tenure is derived from CustomerSince and is read-only.
type Customer struct {
	ID            string    `json:"-"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	CPF           string    `json:"cpf"`
	Age           int       `json:"age"`
	CustomerSince string    `json:"customer_since"`
	Tenure        string    `json:"tenure,omitempty" openapi:"readonly"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at" openapi:"readonly"`
	UpdatedAt     time.Time `json:"updated_at" openapi:"readonly"`
}

// GetID returns the customer ID for JSON:API.
func (c Customer) GetID() string {
	return c.ID
}

// SetID sets the customer ID for JSON:API.
func (c *Customer) SetID(id string) error {
	c.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (c Customer) GetName() string {
	return "customers"
}

var customerAttributes = map[string]string{
	domain.FieldName:          "name",
	domain.FieldEmail:         "email",
	domain.FieldCPF:           "cpf",
	domain.FieldAge:           "age",
	domain.FieldCustomerSince: "customer_since",
	domain.FieldPhone:         "phone",
	domain.FieldAddress:       "address",
}

// CustomerFromDomain converts a domain.Customer to a JSON:API Customer.
func CustomerFromDomain(c *domain.Customer, now time.Time) Customer {
	out := Customer{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		CPF:           c.CPF,
		Age:           c.Age,
		CustomerSince: c.CustomerSince,
		Phone:         c.Phone,
		Address:       c.Address,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if since, err := time.Parse(domain.DateLayout, c.CustomerSince); err == nil {
		out.Tenure = domain.CustomerTenure(since, now)
	}
	return out
}

func (c Customer) record() domain.Record {
	return domain.Record{
		domain.FieldID:            c.ID,
		domain.FieldName:          c.Name,
		domain.FieldEmail:         c.Email,
		domain.FieldCPF:           c.CPF,
		domain.FieldAge:           strconv.Itoa(c.Age),
		domain.FieldCustomerSince: c.CustomerSince,
		domain.FieldPhone:         c.Phone,
		domain.FieldAddress:       c.Address,
	}
}

// =============================================================================
// CustomerResource - CRUD Operations
// =============================================================================

// CustomerResource implements the api2go resource interface for customers.
type CustomerResource struct {
	Store  store.Store
	Policy rules.Policy

	// Now is the reference time for tenure. Default: time.Now.
	Now func() time.Time
}

// NewCustomerResource creates a new customer resource handler.
func NewCustomerResource(s store.Store, policy rules.Policy) *CustomerResource {
	return &CustomerResource{Store: s, Policy: policy, Now: time.Now}
}

// FindAll returns customers ordered by name.
// GET /api/v1/customers
func (r CustomerResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	opts := listOptions(req)
	customers, err := r.Store.ListCustomers(req.PlainRequest.Context(), opts)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	now := r.Now()
	result := make([]Customer, 0, len(customers))
	for i := range customers {
		result = append(result, CustomerFromDomain(&customers[i], now))
	}

	return &Response{Code: http.StatusOK, Res: result, Meta: listMeta(len(result), opts)}, nil
}

// FindOne returns a single customer by ID.
// GET /api/v1/customers/{id}
func (r CustomerResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	customer, err := r.Store.GetCustomer(req.PlainRequest.Context(), id)
	if err != nil {
		return failure(err, "customer", customerAttributes)
	}
	return &Response{Code: http.StatusOK, Res: CustomerFromDomain(customer, r.Now())}, nil
}

// Create adds a customer through an add-mode form session.
// POST /api/v1/customers
func (r CustomerResource) Create(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	actor, ok := actorFrom(req)
	if !ok {
		return unauthorized()
	}
	customer, ok := obj.(Customer)
	if !ok {
		return badBody()
	}

	return r.write(req, records.Write{
		Kind:   domain.KindCustomer,
		Mode:   domain.ModeAdd,
		Values: customer.record(),
		Actor:  actor,
	}, http.StatusCreated)
}

// Update edits a customer through an edit-mode form session.
// PATCH /api/v1/customers/{id}
func (r CustomerResource) Update(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	actor, ok := actorFrom(req)
	if !ok {
		return unauthorized()
	}
	customer, ok := obj.(Customer)
	if !ok {
		return badBody()
	}

	return r.write(req, records.Write{
		Kind:   domain.KindCustomer,
		Mode:   domain.ModeEdit,
		ID:     customer.ID,
		Values: customer.record(),
		Actor:  actor,
	}, http.StatusOK)
}

func (r CustomerResource) write(req api2go.Request, w records.Write, status int) (api2go.Responder, error) {
	ctx := req.PlainRequest.Context()
	w.Policy = r.Policy

	id, warnings, err := records.Apply(ctx, r.Store, w)
	if err != nil {
		return failure(err, "customer", customerAttributes)
	}

	stored, err := r.Store.GetCustomer(ctx, id)
	if err != nil {
		return failure(err, "customer", customerAttributes)
	}
	return &Response{Code: status, Res: CustomerFromDomain(stored, r.Now()), Meta: warningsMeta(warnings)}, nil
}

// Delete removes a customer by ID.
// DELETE /api/v1/customers/{id}
func (r CustomerResource) Delete(id string, req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	if err := r.Store.DeleteCustomer(req.PlainRequest.Context(), id); err != nil {
		return failure(err, "customer", customerAttributes)
	}
	return &Response{Code: http.StatusNoContent}, nil
}
