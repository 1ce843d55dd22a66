// Package records moves form records in and out of the store.
//
// Sessions work on domain.Record values; the store works on typed entities.
// Load seeds a session from a stored entity and Save writes an accepted
// record back, so REST writes and form sessions persist the same way.
package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/form"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// Errors
// =============================================================================

// RejectedError carries the field errors of a record that failed the form
// rules, or that the store refused for a field-level reason.
type RejectedError struct {
	Errors domain.FieldErrors
}

func (e *RejectedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, field := range e.Errors.Fields() {
		parts = append(parts, field+": "+e.Errors[field])
	}
	return "record rejected: " + strings.Join(parts, "; ")
}

// FieldError converts a store uniqueness violation into the field error the
// form shows. It returns nil for any other error.
func FieldError(err error) *RejectedError {
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return &RejectedError{Errors: domain.FieldErrors{domain.FieldEmail: "email is already in use"}}
	case errors.Is(err, store.ErrDuplicateCPF):
		return &RejectedError{Errors: domain.FieldErrors{domain.FieldCPF: "cpf is already registered"}}
	}
	return nil
}

// =============================================================================
// Load / Save
// =============================================================================

// Load returns the stored entity of kind with id as a record.
func Load(ctx context.Context, s store.Store, kind domain.RecordKind, id string) (domain.Record, error) {
	switch kind {
	case domain.KindProduct:
		p, err := s.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		return p.ToRecord(), nil
	case domain.KindUser:
		u, err := s.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		return u.ToRecord(), nil
	case domain.KindCustomer:
		c, err := s.GetCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		return c.ToRecord(), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
}

// Save persists an accepted record and returns the ID it was stored under.
// In edit mode the record is laid over original, so fields the session
// dropped keep their stored values. View mode writes nothing.
func Save(ctx context.Context, s store.Store, kind domain.RecordKind, mode domain.FormMode, original, accepted domain.Record) (string, error) {
	switch mode {
	case domain.ModeView:
		return original[domain.FieldID], nil
	case domain.ModeEdit:
		accepted = original.Merge(accepted)
	case domain.ModeAdd:
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}

	id, err := save(ctx, s, kind, mode, accepted)
	if rejected := FieldError(err); rejected != nil {
		return "", rejected
	}
	return id, err
}

func save(ctx context.Context, s store.Store, kind domain.RecordKind, mode domain.FormMode, r domain.Record) (string, error) {
	switch kind {
	case domain.KindProduct:
		p, err := domain.ProductFromRecord(r)
		if err != nil {
			return "", err
		}
		if mode == domain.ModeAdd {
			err = s.CreateProduct(ctx, &p)
		} else {
			err = s.UpdateProduct(ctx, &p)
		}
		return p.ID, err

	case domain.KindUser:
		u, err := domain.UserFromRecord(r)
		if err != nil {
			return "", err
		}
		if mode == domain.ModeAdd {
			err = s.CreateUser(ctx, &u)
		} else {
			err = s.UpdateUser(ctx, &u)
		}
		return u.ID, err

	case domain.KindCustomer:
		c, err := domain.CustomerFromRecord(r)
		if err != nil {
			return "", err
		}
		if mode == domain.ModeAdd {
			err = s.CreateCustomer(ctx, &c)
		} else {
			err = s.UpdateCustomer(ctx, &c)
		}
		return c.ID, err
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
}

// =============================================================================
// One-shot Writes
// =============================================================================

// Write is a single create or update request.
type Write struct {
	Kind   domain.RecordKind
	Mode   domain.FormMode
	ID     string
	Values domain.Record
	Actor  auth.Actor
	Policy rules.Policy
}

// Apply replays w.Values through a form session and saves the result.
// For edits the session is seeded from the stored record with w.ID.
// Values the actor may not change are ignored, exactly as in a form.
// Field errors are returned as a *RejectedError; warnings are returned
// alongside a successful save.
func Apply(ctx context.Context, s store.Store, w Write) (string, domain.FieldErrors, error) {
	original := domain.Record{}
	if w.Mode != domain.ModeAdd {
		loaded, err := Load(ctx, s, w.Kind, w.ID)
		if err != nil {
			return "", nil, err
		}
		original = loaded
	}

	session, err := form.Open(w.Kind, w.Mode, original, w.Actor, form.WithPolicy(w.Policy))
	if err != nil {
		return "", nil, err
	}
	defer session.Close()

	// Fixed order keeps replays deterministic
	fields := make([]string, 0, len(w.Values))
	for field := range w.Values {
		if field != domain.FieldID {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	for _, field := range fields {
		if err := session.Change(field, w.Values[field]); err != nil {
			return "", nil, fmt.Errorf("%s: %w", field, err)
		}
	}

	accepted, fieldErrs := session.Submit()
	if !fieldErrs.Empty() {
		return "", nil, &RejectedError{Errors: fieldErrs}
	}
	warnings := session.Warnings()

	id, err := Save(ctx, s, w.Kind, w.Mode, original, accepted)
	if err != nil {
		return "", nil, err
	}
	return id, warnings, nil
}
