package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/manyminds/api2go"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/core/validation"
	"github.com/artpar/shopdesk/internal/shell/records"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// Product JSON:API Model
// =============================================================================

// Product is the JSON:API representation of domain.Product.
// EffectivePrice, CreatedAt and UpdatedAt are read-only.
type Product struct {
	ID               string    `json:"-"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	PromotionalPrice *float64  `json:"promotional_price"`
	Category         string    `json:"category"`
	Description      string    `json:"description"`
	ExpirationDate   string    `json:"expiration_date"`
	Stock            int       `json:"stock"`
	EffectivePrice   float64   `json:"effective_price" openapi:"readonly"`
	CreatedAt        time.Time `json:"created_at" openapi:"readonly"`
	UpdatedAt        time.Time `json:"updated_at" openapi:"readonly"`
}

// GetID returns the product ID for JSON:API.
func (p Product) GetID() string {
	return p.ID
}

// SetID sets the product ID for JSON:API.
func (p *Product) SetID(id string) error {
	p.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (p Product) GetName() string {
	return "products"
}

// productAttributes maps form fields to attribute names.
var productAttributes = map[string]string{
	domain.FieldName:             "name",
	domain.FieldPrice:            "price",
	domain.FieldPromotionalPrice: "promotional_price",
	domain.FieldType:             "category",
	domain.FieldDescription:      "description",
	domain.FieldExpirationDate:   "expiration_date",
	domain.FieldStock:            "stock",
}

// ProductFromDomain converts a domain.Product to a JSON:API Product.
func ProductFromDomain(p *domain.Product) Product {
	return Product{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		PromotionalPrice: p.PromotionalPrice,
		Category:         p.Category,
		Description:      p.Description,
		ExpirationDate:   p.ExpirationDate,
		Stock:            p.Stock,
		EffectivePrice:   p.EffectivePrice(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// record returns the editable fields of p as form input.
func (p Product) record() domain.Record {
	return domain.Product{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		PromotionalPrice: p.PromotionalPrice,
		Category:         p.Category,
		Description:      p.Description,
		ExpirationDate:   p.ExpirationDate,
		Stock:            p.Stock,
	}.ToRecord()
}

// =============================================================================
// ProductResource - CRUD Operations
// =============================================================================

// ProductResource implements the api2go resource interface for products.
type ProductResource struct {
	Store  store.Store
	Policy rules.Policy
}

// NewProductResource creates a new product resource handler.
func NewProductResource(s store.Store, policy rules.Policy) *ProductResource {
	return &ProductResource{Store: s, Policy: policy}
}

// FindAll returns products ordered by name.
// GET /api/v1/products
func (r ProductResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	opts := listOptions(req)
	products, err := r.Store.ListProducts(req.PlainRequest.Context(), opts)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	result := make([]Product, 0, len(products))
	for i := range products {
		result = append(result, ProductFromDomain(&products[i]))
	}

	return &Response{Code: http.StatusOK, Res: result, Meta: listMeta(len(result), opts)}, nil
}

// FindOne returns a single product by ID.
// GET /api/v1/products/{id}
func (r ProductResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	product, err := r.Store.GetProduct(req.PlainRequest.Context(), id)
	if err != nil {
		return failure(err, "product", productAttributes)
	}
	return &Response{Code: http.StatusOK, Res: ProductFromDomain(product)}, nil
}

// Create adds a product through an add-mode form session.
// POST /api/v1/products
// Auth: any staff member; only admins and managers may set promotional_price.
func (r ProductResource) Create(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	actor, ok := actorFrom(req)
	if !ok {
		return unauthorized()
	}
	product, ok := obj.(Product)
	if !ok {
		return badBody()
	}

	return r.write(req, records.Write{
		Kind:   domain.KindProduct,
		Mode:   domain.ModeAdd,
		Values: product.record(),
		Actor:  actor,
	}, http.StatusCreated)
}

// Update edits a product through an edit-mode form session.
// PATCH /api/v1/products/{id}
func (r ProductResource) Update(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	actor, ok := actorFrom(req)
	if !ok {
		return unauthorized()
	}
	product, ok := obj.(Product)
	if !ok {
		return badBody()
	}

	return r.write(req, records.Write{
		Kind:   domain.KindProduct,
		Mode:   domain.ModeEdit,
		ID:     product.ID,
		Values: product.record(),
		Actor:  actor,
	}, http.StatusOK)
}

func (r ProductResource) write(req api2go.Request, w records.Write, status int) (api2go.Responder, error) {
	ctx := req.PlainRequest.Context()
	w.Policy = r.Policy

	id, warnings, err := records.Apply(ctx, r.Store, w)
	if err != nil {
		return failure(err, "product", productAttributes)
	}

	stored, err := r.Store.GetProduct(ctx, id)
	if err != nil {
		return failure(err, "product", productAttributes)
	}
	return &Response{Code: status, Res: ProductFromDomain(stored), Meta: warningsMeta(warnings)}, nil
}

// Delete removes a product by ID.
// DELETE /api/v1/products/{id}
func (r ProductResource) Delete(id string, req api2go.Request) (api2go.Responder, error) {
	if _, ok := actorFrom(req); !ok {
		return unauthorized()
	}

	if err := r.Store.DeleteProduct(req.PlainRequest.Context(), id); err != nil {
		return failure(err, "product", productAttributes)
	}
	return &Response{Code: http.StatusNoContent}, nil
}

// =============================================================================
// Custom Actions - Promotions
// =============================================================================

// PromotionRequest is the body of a set-promotion action.
type PromotionRequest struct {
	PromotionalPrice *float64 `json:"promotional_price"`
}

// SetPromotion applies a promotional price to a product.
// The price must be positive and strictly below the base price.
// Auth: admins and managers only.
func (r ProductResource) SetPromotion(id string, req *http.Request) (api2go.Responder, error) {
	ctx := req.Context()
	actor := auth.FromContext(ctx)
	if resp, err := r.checkPromotionAccess(actor); err != nil {
		return resp, err
	}

	var body PromotionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.PromotionalPrice == nil {
		return &Response{Code: http.StatusBadRequest}, httpError(http.StatusBadRequest, "promotional_price is required")
	}

	product, err := r.Store.GetProduct(ctx, id)
	if err != nil {
		return failure(err, "product", productAttributes)
	}

	if allowed, reason := validation.CanApplyPromotion(product.Price, *body.PromotionalPrice); !allowed {
		return failure(&records.RejectedError{
			Errors: domain.FieldErrors{domain.FieldPromotionalPrice: reason},
		}, "product", productAttributes)
	}

	return r.promote(ctx, id, body.PromotionalPrice)
}

// ClearPromotion removes a product's promotional price.
// Auth: admins and managers only.
func (r ProductResource) ClearPromotion(id string, req *http.Request) (api2go.Responder, error) {
	actor := auth.FromContext(req.Context())
	if resp, err := r.checkPromotionAccess(actor); err != nil {
		return resp, err
	}
	return r.promote(req.Context(), id, nil)
}

func (r ProductResource) checkPromotionAccess(actor auth.Actor) (api2go.Responder, error) {
	if !actor.Authenticated {
		return unauthorized()
	}
	if !auth.CanSetPromotionalPrice(actor) {
		return &Response{Code: http.StatusForbidden}, httpError(http.StatusForbidden, "only admins and managers can manage promotions")
	}
	return nil, nil
}

func (r ProductResource) promote(ctx context.Context, id string, promo *float64) (api2go.Responder, error) {
	if err := r.Store.SetPromotion(ctx, id, promo); err != nil {
		return failure(err, "product", productAttributes)
	}
	product, err := r.Store.GetProduct(ctx, id)
	if err != nil {
		return failure(err, "product", productAttributes)
	}
	return &Response{Code: http.StatusOK, Res: ProductFromDomain(product)}, nil
}
