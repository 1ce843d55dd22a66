// Package resources provides JSON:API resource implementations for the back
// office API. Writes go through a one-shot form session so they obey the same
// rules as the interactive forms.
package resources

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/manyminds/api2go"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/form"
	"github.com/artpar/shopdesk/internal/shell/records"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// Response Helper
// =============================================================================

// Response implements api2go.Responder for custom responses.
type Response struct {
	Code int
	Res  interface{}
	Meta map[string]interface{}
}

// Metadata returns additional metadata for the response.
func (r *Response) Metadata() map[string]interface{} {
	return r.Meta
}

// Result returns the response data.
func (r *Response) Result() interface{} {
	return r.Res
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.Code
}

// warningsMeta puts advisory field messages in the response meta.
func warningsMeta(warnings domain.FieldErrors) map[string]interface{} {
	if warnings.Empty() {
		return nil
	}
	return map[string]interface{}{"warnings": warnings}
}

// =============================================================================
// Errors
// =============================================================================

// httpError builds an api2go error with a single error object.
func httpError(status int, detail string) api2go.HTTPError {
	httpErr := api2go.NewHTTPError(errors.New(detail), detail, status)
	httpErr.Errors = []api2go.Error{{
		Status: strconv.Itoa(status),
		Title:  http.StatusText(status),
		Detail: detail,
	}}
	return httpErr
}

// rejectionError renders field errors as 422 error objects pointing at the
// offending attributes.
func rejectionError(rejected *records.RejectedError, attributes map[string]string) api2go.HTTPError {
	httpErr := api2go.NewHTTPError(rejected, "record rejected", http.StatusUnprocessableEntity)
	for _, field := range rejected.Errors.Fields() {
		attr, ok := attributes[field]
		if !ok {
			attr = field
		}
		httpErr.Errors = append(httpErr.Errors, api2go.Error{
			Status: strconv.Itoa(http.StatusUnprocessableEntity),
			Title:  "Invalid field",
			Detail: rejected.Errors[field],
			Source: &api2go.ErrorSource{Pointer: "/data/attributes/" + attr},
		})
	}
	return httpErr
}

// failure maps a write or lookup error to its response.
func failure(err error, entity string, attributes map[string]string) (api2go.Responder, error) {
	var rejected *records.RejectedError
	switch {
	case errors.As(err, &rejected):
		return &Response{Code: http.StatusUnprocessableEntity}, rejectionError(rejected, attributes)
	case isNotFound(err):
		return &Response{Code: http.StatusNotFound}, httpError(http.StatusNotFound, entity+" not found")
	case errors.Is(err, form.ErrUnknownField):
		return &Response{Code: http.StatusBadRequest}, httpError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		return &Response{Code: http.StatusConflict}, httpError(http.StatusConflict, fmt.Sprintf("%s already exists", entity))
	}
	return &Response{Code: http.StatusInternalServerError}, err
}

func unauthorized() (api2go.Responder, error) {
	return &Response{Code: http.StatusUnauthorized}, httpError(http.StatusUnauthorized, "authentication required")
}

func badBody() (api2go.Responder, error) {
	return &Response{Code: http.StatusBadRequest}, httpError(http.StatusBadRequest, "invalid request body")
}

// actorFrom returns the authenticated actor of req.
func actorFrom(req api2go.Request) (auth.Actor, bool) {
	actor := auth.FromContext(req.PlainRequest.Context())
	return actor, actor.Authenticated
}

// =============================================================================
// Helper Functions
// =============================================================================

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// listOptions reads pagination and search from the query string.
// Supports page[size], page[offset], page[number] and filter[name].
func listOptions(req api2go.Request) store.ListOptions {
	opts := store.DefaultListOptions()

	if limit, ok := req.QueryParams["page[size]"]; ok && len(limit) > 0 {
		if l, err := strconv.Atoi(limit[0]); err == nil {
			opts.Limit = l
		}
	}
	if offset, ok := req.QueryParams["page[offset]"]; ok && len(offset) > 0 {
		if o, err := strconv.Atoi(offset[0]); err == nil {
			opts.Offset = o
		}
	}
	if pageNum, ok := req.QueryParams["page[number]"]; ok && len(pageNum) > 0 {
		if pn, err := strconv.Atoi(pageNum[0]); err == nil && pn > 0 {
			opts.Offset = (pn - 1) * opts.Limit
		}
	}
	if search, ok := req.QueryParams["filter[name]"]; ok && len(search) > 0 {
		opts.Search = search[0]
	}

	return opts.Normalize()
}

func listMeta(total int, opts store.ListOptions) map[string]interface{} {
	return map[string]interface{}{
		"total":  total,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	}
}
