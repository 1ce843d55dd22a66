// Package api provides the HTTP surface of the back office: JSON:API
// resources for products, users and customers, served with api2go, and the
// form session, field check and login endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/manyminds/api2go"

	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/api/middleware"
	"github.com/artpar/shopdesk/internal/shell/api/openapi"
	"github.com/artpar/shopdesk/internal/shell/api/resources"
	"github.com/artpar/shopdesk/internal/shell/sessions"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// API Setup
// =============================================================================

// APIConfig holds configuration for the API setup.
type APIConfig struct {
	Store    store.Store
	Sessions *sessions.Registry
	Policy   rules.Policy
	Logger   *slog.Logger

	// AuthMode is auth.ModeDev or auth.ModeToken.
	AuthMode string

	// TokenSecret signs and verifies bearer tokens. Empty disables login.
	TokenSecret []byte

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	// Version is reported in the OpenAPI document.
	Version string
}

// SetupAPI creates the complete API router with JSON:API resources and custom endpoints.
func SetupAPI(cfg APIConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = sessions.NewRegistry(cfg.Logger)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(recoveryMiddleware(cfg.Logger))

	authMW := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Mode:        cfg.AuthMode,
		TokenSecret: cfg.TokenSecret,
		Logger:      cfg.Logger,
	})
	router.Use(authMW.Handler)

	// Health endpoints
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/ready", readyHandler(cfg.Store, cfg.Sessions)).Methods("GET")

	productResource := resources.NewProductResource(cfg.Store, cfg.Policy)
	userResource := resources.NewUserResource(cfg.Store, cfg.Policy)
	customerResource := resources.NewCustomerResource(cfg.Store, cfg.Policy)

	// Product custom actions, registered before the api2go catch-all
	router.HandleFunc("/api/v1/products/{id}/promotion", func(w http.ResponseWriter, r *http.Request) {
		resp, err := productResource.SetPromotion(mux.Vars(r)["id"], r)
		writeResponder(w, resp, err, cfg.Logger)
	}).Methods("POST")

	router.HandleFunc("/api/v1/products/{id}/promotion", func(w http.ResponseWriter, r *http.Request) {
		resp, err := productResource.ClearPromotion(mux.Vars(r)["id"], r)
		writeResponder(w, resp, err, cfg.Logger)
	}).Methods("DELETE")

	// Form sessions, field checks and login
	handler := NewHandler(HandlerConfig{
		Store:       cfg.Store,
		Sessions:    cfg.Sessions,
		Policy:      cfg.Policy,
		Logger:      cfg.Logger,
		TokenSecret: cfg.TokenSecret,
		TokenTTL:    cfg.TokenTTL,
	})
	routes := handler.Routes()
	router.PathPrefix("/api/v1/forms").Handler(routes)
	router.PathPrefix("/api/v1/validate").Handler(routes)
	router.PathPrefix("/api/v1/auth").Handler(routes)

	router.HandleFunc("/openapi.json", newOpenAPIGenerator(cfg.Version).Handler()).Methods("GET")

	// JSON:API resources. api2go routes /v1/... so the /api prefix is stripped.
	jsonAPI := api2go.NewAPIWithResolver("v1", api2go.NewStaticResolver("/api"))
	jsonAPI.ContentType = "application/vnd.api+json"
	jsonAPI.AddResource(resources.Product{}, productResource)
	jsonAPI.AddResource(resources.User{}, userResource)
	jsonAPI.AddResource(resources.Customer{}, customerResource)

	router.PathPrefix("/api").Handler(http.StripPrefix("/api", jsonAPI.Handler()))

	cfg.Logger.Info("api configured",
		"auth_mode", cfg.AuthMode,
		"token_login", len(cfg.TokenSecret) > 0,
	)
	return router
}

// newOpenAPIGenerator documents every route SetupAPI registers.
func newOpenAPIGenerator(version string) *openapi.Generator {
	gen := openapi.NewGenerator(
		openapi.WithTitle("Shopdesk API"),
		openapi.WithVersion(version),
		openapi.WithDescription("Back office API for products, users and customers. Resources follow JSON:API; form sessions validate records before they are stored."),
		openapi.WithServer("/"),
	)

	for _, res := range []openapi.ResourceInfo{
		{Name: "products", Model: resources.Product{}},
		{Name: "users", Model: resources.User{}},
		{Name: "customers", Model: resources.Customer{}},
	} {
		res.Find, res.Create, res.Update, res.Delete = true, true, true, true
		gen.RegisterResource(res)
	}

	actions := []openapi.ActionInfo{
		{Method: "POST", Path: "/api/v1/products/{id}/promotion", OperationID: "setPromotion", Summary: "Set a product's promotional price", Tag: "Products",
			Request: resources.PromotionRequest{}, Response: resources.Product{}, JSONAPI: true,
			Errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity}},
		{Method: "DELETE", Path: "/api/v1/products/{id}/promotion", OperationID: "clearPromotion", Summary: "Clear a product's promotional price", Tag: "Products",
			Response: resources.Product{}, JSONAPI: true,
			Errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},

		{Method: "POST", Path: "/api/v1/forms", OperationID: "openForm", Summary: "Open a form session", Tag: "Forms",
			Request: OpenFormRequest{}, Response: FormResponse{}, Status: http.StatusCreated,
			Errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound}},
		{Method: "GET", Path: "/api/v1/forms/{id}", OperationID: "getForm", Summary: "Get a form session", Tag: "Forms",
			Response: FormResponse{}, Errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},
		{Method: "PATCH", Path: "/api/v1/forms/{id}", OperationID: "changeField", Summary: "Change one field of a form session", Tag: "Forms",
			Request: ChangeFieldRequest{}, Response: FormResponse{},
			Errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict}},
		{Method: "POST", Path: "/api/v1/forms/{id}/submit", OperationID: "submitForm", Summary: "Validate and store a form session's record", Tag: "Forms",
			Response: SubmitResponse{},
			Errors:   []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity}},
		{Method: "DELETE", Path: "/api/v1/forms/{id}", OperationID: "closeForm", Summary: "Discard a form session", Tag: "Forms",
			Errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound}},

		{Method: "POST", Path: "/api/v1/validate/cpf", OperationID: "checkCPF", Summary: "Check and mask a CPF", Tag: "Validation",
			Request: CheckRequest{}, Response: CPFCheckResponse{}, Errors: []int{http.StatusBadRequest}},
		{Method: "POST", Path: "/api/v1/validate/email", OperationID: "checkEmail", Summary: "Check an email address", Tag: "Validation",
			Request: CheckRequest{}, Response: EmailCheckResponse{}, Errors: []int{http.StatusBadRequest}},
		{Method: "POST", Path: "/api/v1/validate/password", OperationID: "checkPassword", Summary: "Report password strength", Tag: "Validation",
			Request: CheckRequest{}, Response: PasswordCheckResponse{}, Errors: []int{http.StatusBadRequest}},

		{Method: "POST", Path: "/api/v1/auth/login", OperationID: "login", Summary: "Exchange credentials for a bearer token", Tag: "Auth",
			Request: LoginRequest{}, Response: LoginResponse{}, Errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound}},
		{Method: "GET", Path: "/api/v1/auth/me", OperationID: "me", Summary: "Describe the acting user", Tag: "Auth",
			Response: MeResponse{}, Errors: []int{http.StatusUnauthorized}},
	}
	for _, act := range actions {
		gen.RegisterAction(act)
	}
	return gen
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDMiddleware generates and adds a request ID to responses.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = "req_" + uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error.
func recoveryMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					w.Header().Set("Content-Type", "application/vnd.api+json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"errors": []map[string]interface{}{
							{
								"status": "500",
								"title":  "Internal Server Error",
								"detail": "An unexpected error occurred",
							},
						},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// Health Handlers
// =============================================================================

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

func readyHandler(s store.Store, registry *sessions.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		checks := map[string]string{
			"sessions": strconv.Itoa(registry.Len()),
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := s.ListUsers(ctx, store.ListOptions{Limit: 1}); err != nil {
			checks["database"] = "failed"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(ReadyResponse{Status: "not_ready", Checks: checks})
			return
		}
		checks["database"] = "ok"

		json.NewEncoder(w).Encode(ReadyResponse{Status: "ready", Checks: checks})
	}
}

// =============================================================================
// Helpers
// =============================================================================

// writeResponder writes an api2go.Responder to the response writer.
func writeResponder(w http.ResponseWriter, resp api2go.Responder, err error, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/vnd.api+json")

	if err != nil {
		if httpErr, ok := err.(api2go.HTTPError); ok && len(httpErr.Errors) > 0 {
			w.WriteHeader(parseStatus(httpErr.Errors[0].Status))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"errors": httpErr.Errors,
			})
			return
		}
		logger.Error("request error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]interface{}{
				{
					"status": "500",
					"title":  "Internal Server Error",
					"detail": "An unexpected error occurred",
				},
			},
		})
		return
	}

	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.WriteHeader(resp.StatusCode())
	if result := resp.Result(); result != nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": resourceObject(result),
			"meta": resp.Metadata(),
		})
	}
}

// resourceObject wraps a model in a JSON:API resource object.
func resourceObject(result interface{}) interface{} {
	obj, ok := result.(interface {
		GetID() string
		GetName() string
	})
	if !ok {
		return result
	}
	return map[string]interface{}{
		"type":       obj.GetName(),
		"id":         obj.GetID(),
		"attributes": result,
	}
}

// parseStatus converts a status string to an int.
func parseStatus(status string) int {
	if i, err := strconv.Atoi(status); err == nil && i > 0 {
		return i
	}
	return http.StatusInternalServerError
}
