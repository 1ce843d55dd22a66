// Package openapi builds the OpenAPI 3.0 document of the back office API by
// reflecting on the registered resource models and action payloads.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	jsonAPIContentType = "application/vnd.api+json"
	jsonContentType    = "application/json"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 documents from registered resources and actions.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string

	mu        sync.RWMutex
	resources []ResourceInfo
	actions   []ActionInfo
	cached    *openapi3.T
}

// ResourceInfo describes a JSON:API resource served under /api/v1/{Name}.
type ResourceInfo struct {
	Name     string // JSON:API type, e.g. "products"
	Singular string // e.g. "product"; derived from Name when empty
	Model    interface{}

	Find   bool // GET /{type} and GET /{type}/{id}
	Create bool // POST /{type}
	Update bool // PATCH /{type}/{id}
	Delete bool // DELETE /{type}/{id}
}

// ActionInfo describes a plain JSON endpoint outside the JSON:API resources.
type ActionInfo struct {
	Method      string
	Path        string // may contain {id}
	OperationID string
	Summary     string
	Tag         string

	// Request and Response are payload models. Either may be nil.
	Request  interface{}
	Response interface{}

	// Status is the success status. Default: 200, or 204 without a Response.
	Status int

	// Errors lists the error statuses the endpoint documents.
	Errors []int

	// JSONAPI marks actions that answer in the JSON:API envelope.
	JSONAPI bool
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) { g.title = title }
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) { g.version = version }
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) { g.description = description }
}

// WithServer adds a server URL. The first call replaces the default.
func WithServer(url string) Option {
	return func(g *Generator) {
		if len(g.servers) == 1 && g.servers[0] == defaultServer {
			g.servers = nil
		}
		g.servers = append(g.servers, url)
	}
}

const defaultServer = "http://localhost:8080"

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:   "Shopdesk API",
		version: "1.0.0",
		servers: []string{defaultServer},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RegisterResource adds a JSON:API resource.
func (g *Generator) RegisterResource(info ResourceInfo) {
	if info.Singular == "" {
		info.Singular = singularize(info.Name)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources = append(g.resources, info)
	g.cached = nil
}

// RegisterAction adds a custom endpoint.
func (g *Generator) RegisterAction(info ActionInfo) {
	if info.Status == 0 {
		info.Status = http.StatusOK
		if info.Response == nil {
			info.Status = http.StatusNoContent
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.actions = append(g.actions, info)
	g.cached = nil
}

// Generate returns the document. It is built once and reused until the next
// registration.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if doc := g.cached; doc != nil {
		g.mu.RUnlock()
		return doc
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cached != nil {
		return g.cached
	}

	b := &builder{
		doc: &openapi3.T{
			OpenAPI: "3.0.3",
			Info: &openapi3.Info{
				Title:       g.title,
				Version:     g.version,
				Description: g.description,
			},
			Paths: &openapi3.Paths{},
			Components: &openapi3.Components{
				Schemas: make(openapi3.Schemas),
			},
		},
	}
	for _, url := range g.servers {
		b.doc.Servers = append(b.doc.Servers, &openapi3.Server{URL: url})
	}

	b.commonSchemas()
	for _, res := range g.resources {
		b.resource(res)
	}
	for _, act := range g.actions {
		b.action(act)
	}

	g.cached = b.doc
	return g.cached
}

// Handler serves the document as JSON.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", jsonContentType)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(g.Generate()); err != nil {
			http.Error(w, "failed to encode OpenAPI document", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Builder
// =============================================================================

type builder struct {
	doc *openapi3.T
}

func typed(t, format string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{t}, Format: format}}
}

func object(props openapi3.Schemas) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}, Properties: props}}
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: items}}
}

func ref(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

func (b *builder) commonSchemas() {
	s := b.doc.Components.Schemas

	s["Links"] = object(openapi3.Schemas{
		"self":    typed("string", "uri"),
		"related": typed("string", "uri"),
	})
	s["ListMeta"] = object(openapi3.Schemas{
		"total":  typed("integer", ""),
		"limit":  typed("integer", ""),
		"offset": typed("integer", ""),
	})
	s["Error"] = object(openapi3.Schemas{
		"errors": arrayOf(object(openapi3.Schemas{
			"status": typed("string", ""),
			"title":  typed("string", ""),
			"detail": typed("string", ""),
			"source": object(openapi3.Schemas{
				"pointer": typed("string", ""),
			}),
		})),
	})
	s["ActionError"] = object(openapi3.Schemas{
		"error":        typed("string", ""),
		"code":         typed("string", ""),
		"field_errors": stringMap(),
	})
}

func stringMap() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:                 &openapi3.Types{"object"},
		AdditionalProperties: openapi3.AdditionalProperties{Schema: typed("string", "")},
	}}
}

// resource adds the schemas and the collection and item paths of res.
func (b *builder) resource(res ResourceInfo) {
	name := capitalize(res.Singular)
	s := b.doc.Components.Schemas

	s[name+"Attributes"] = schemaOf(reflect.TypeOf(res.Model))
	s[name] = object(openapi3.Schemas{
		"type":       &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: []interface{}{res.Name}}},
		"id":         typed("string", ""),
		"attributes": ref(name + "Attributes"),
	})
	s[name].Value.Required = []string{"type"}
	s[name+"Document"] = object(openapi3.Schemas{
		"data":  ref(name),
		"links": ref("Links"),
		"meta":  &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
	})
	s[name+"ListDocument"] = object(openapi3.Schemas{
		"data": arrayOf(ref(name)),
		"meta": ref("ListMeta"),
	})

	tag := capitalize(res.Name)
	base := "/api/v1/" + res.Name

	collection := &openapi3.PathItem{}
	if res.Find {
		collection.Get = &openapi3.Operation{
			OperationID: "list" + capitalize(res.Name),
			Summary:     "List " + res.Name,
			Tags:        []string{tag},
			Parameters:  listParameters(),
			Responses:   b.responses(jsonAPIContentType, http.StatusOK, ref(name+"ListDocument"), "Error", http.StatusUnauthorized),
		}
	}
	if res.Create {
		collection.Post = &openapi3.Operation{
			OperationID: "create" + name,
			Summary:     "Create a " + res.Singular,
			Tags:        []string{tag},
			RequestBody: requestBody(jsonAPIContentType, ref(name+"Document")),
			Responses: b.responses(jsonAPIContentType, http.StatusCreated, ref(name+"Document"), "Error",
				http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusUnprocessableEntity),
		}
	}
	b.doc.Paths.Set(base, collection)

	item := &openapi3.PathItem{Parameters: openapi3.Parameters{idParameter()}}
	if res.Find {
		item.Get = &openapi3.Operation{
			OperationID: "get" + name,
			Summary:     "Get a " + res.Singular,
			Tags:        []string{tag},
			Responses:   b.responses(jsonAPIContentType, http.StatusOK, ref(name+"Document"), "Error", http.StatusUnauthorized, http.StatusNotFound),
		}
	}
	if res.Update {
		item.Patch = &openapi3.Operation{
			OperationID: "update" + name,
			Summary:     "Update a " + res.Singular,
			Tags:        []string{tag},
			RequestBody: requestBody(jsonAPIContentType, ref(name+"Document")),
			Responses: b.responses(jsonAPIContentType, http.StatusOK, ref(name+"Document"), "Error",
				http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusUnprocessableEntity),
		}
	}
	if res.Delete {
		item.Delete = &openapi3.Operation{
			OperationID: "delete" + name,
			Summary:     "Delete a " + res.Singular,
			Tags:        []string{tag},
			Responses:   b.responses(jsonAPIContentType, http.StatusNoContent, nil, "Error", http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound),
		}
	}
	b.doc.Paths.Set(base+"/{id}", item)
}

// action adds one custom endpoint. Payload schemas are registered under
// their Go type names.
func (b *builder) action(act ActionInfo) {
	contentType := jsonContentType
	errorSchema := "ActionError"
	if act.JSONAPI {
		contentType = jsonAPIContentType
		errorSchema = "Error"
	}

	op := &openapi3.Operation{
		OperationID: act.OperationID,
		Summary:     act.Summary,
	}
	if act.Tag != "" {
		op.Tags = []string{act.Tag}
	}
	if act.Request != nil {
		op.RequestBody = requestBody(jsonContentType, b.named(act.Request))
	}
	var body *openapi3.SchemaRef
	if act.Response != nil {
		body = b.named(act.Response)
	}
	op.Responses = b.responses(contentType, act.Status, body, errorSchema, act.Errors...)

	item := b.doc.Paths.Value(act.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		if strings.Contains(act.Path, "{id}") {
			item.Parameters = openapi3.Parameters{idParameter()}
		}
		b.doc.Paths.Set(act.Path, item)
	}
	item.SetOperation(strings.ToUpper(act.Method), op)
}

// named registers the schema of model's type and returns a reference to it.
func (b *builder) named(model interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if _, ok := b.doc.Components.Schemas[t.Name()]; !ok {
		b.doc.Components.Schemas[t.Name()] = schemaOf(t)
	}
	return ref(t.Name())
}

func (b *builder) responses(contentType string, status int, body *openapi3.SchemaRef, errorSchema string, errs ...int) *openapi3.Responses {
	out := &openapi3.Responses{}

	ok := openapi3.NewResponse().WithDescription(http.StatusText(status))
	if body != nil {
		ok.Content = openapi3.NewContentWithSchemaRef(body, []string{contentType})
	}
	out.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: ok})

	sorted := append([]int(nil), errs...)
	sort.Ints(sorted)
	for _, code := range sorted {
		resp := openapi3.NewResponse().WithDescription(http.StatusText(code))
		resp.Content = openapi3.NewContentWithSchemaRef(ref(errorSchema), []string{contentType})
		out.Set(strconv.Itoa(code), &openapi3.ResponseRef{Value: resp})
	}
	return out
}

func requestBody(contentType string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
		Required: true,
		Content:  openapi3.NewContentWithSchemaRef(schema, []string{contentType}),
	}}
}

func idParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name:     "id",
		In:       openapi3.ParameterInPath,
		Required: true,
		Schema:   typed("string", ""),
	}}
}

func listParameters() openapi3.Parameters {
	query := func(name, t, description string) *openapi3.ParameterRef {
		return &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:        name,
			In:          openapi3.ParameterInQuery,
			Description: description,
			Schema:      typed(t, ""),
		}}
	}
	return openapi3.Parameters{
		query("page[size]", "integer", "Page size, at most 1000"),
		query("page[number]", "integer", "1-based page number"),
		query("page[offset]", "integer", "Offset, used instead of page[number]"),
		query("filter[name]", "string", "Case-insensitive name substring"),
	}
}

// =============================================================================
// Reflection
// =============================================================================

var timeType = reflect.TypeOf(time.Time{})

// schemaOf converts a Go type to a schema. Struct fields use their JSON
// names; embedded structs are flattened as encoding/json does.
func schemaOf(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return typed("string", "")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return typed("integer", "int32")
	case reflect.Int64:
		return typed("integer", "int64")
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return typed("integer", "")
	case reflect.Float32:
		return typed("number", "float")
	case reflect.Float64:
		return typed("number", "double")
	case reflect.Bool:
		return typed("boolean", "")
	case reflect.Slice, reflect.Array:
		return arrayOf(schemaOf(t.Elem()))
	case reflect.Map:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:                 &openapi3.Types{"object"},
			AdditionalProperties: openapi3.AdditionalProperties{Schema: schemaOf(t.Elem())},
		}}
	case reflect.Ptr:
		s := schemaOf(t.Elem())
		s.Value.Nullable = true
		return s
	case reflect.Struct:
		if t == timeType {
			return typed("string", "date-time")
		}
		s := object(make(openapi3.Schemas))
		addFields(s.Value, t)
		return s
	}
	return object(nil)
}

func addFields(s *openapi3.Schema, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if f.Anonymous && tag == "" && f.Type.Kind() == reflect.Struct {
			addFields(s, f.Type)
			continue
		}
		if !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		prop := schemaOf(f.Type)
		if strings.Contains(f.Tag.Get("openapi"), "readonly") {
			prop.Value.ReadOnly = true
		}
		if strings.Contains(f.Tag.Get("openapi"), "writeonly") {
			prop.Value.WriteOnly = true
		}
		s.Properties[name] = prop
		if !strings.Contains(opts, "omitempty") && strings.Contains(f.Tag.Get("validate"), "required") {
			s.Required = append(s.Required, name)
		}
	}
}

// =============================================================================
// Helpers
// =============================================================================

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// singularize strips a plural suffix: "categories" -> "category", "users" -> "user".
func singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "sses"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s"):
		return s[:len(s)-1]
	}
	return s
}
