// Package rules evaluates whole records against the per-kind, per-mode field
// rules of the back office forms.
//
// This is part of the Functional Core - Evaluate is pure. The actor and the
// policy are passed in explicitly.
package rules

import (
	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
)

// =============================================================================
// Types
// =============================================================================

// Policy holds the configurable rule switches.
type Policy struct {
	// PromotionBelowBaseIsBlocking makes a promotional price at or above the
	// base price an error. When false it is reported as a warning.
	PromotionBelowBaseIsBlocking bool
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{PromotionBelowBaseIsBlocking: true}
}

// Input is everything a rule evaluation depends on.
type Input struct {
	Kind   domain.RecordKind
	Mode   domain.FormMode
	Record domain.Record

	// Original is the stored record an edit started from. It is ignored
	// outside edit mode.
	Original domain.Record

	Actor  auth.Actor
	Policy Policy
}

// Outcome is the result of a full evaluation. Only Errors block submission.
type Outcome struct {
	Errors   domain.FieldErrors
	Warnings domain.FieldErrors
}

// Valid reports whether the record may be submitted.
func (o Outcome) Valid() bool {
	return o.Errors.Empty()
}

// =============================================================================
// Evaluation
// =============================================================================

// Evaluate runs every rule for the input's kind and mode and returns the
// complete error and warning maps. View mode always passes.
func Evaluate(in Input) Outcome {
	c := &checker{
		in:       in,
		errors:   domain.FieldErrors{},
		warnings: domain.FieldErrors{},
	}
	if in.Record == nil {
		c.in.Record = domain.Record{}
	}
	if in.Mode != domain.ModeEdit {
		c.in.Original = nil
	}

	if in.Mode != domain.ModeAdd && in.Mode != domain.ModeEdit {
		return c.outcome()
	}

	switch in.Kind {
	case domain.KindProduct:
		c.product()
	case domain.KindUser:
		c.user()
	case domain.KindCustomer:
		c.customer()
	}
	return c.outcome()
}

// Validate is Evaluate without the warnings.
func Validate(in Input) domain.FieldErrors {
	return Evaluate(in).Errors
}

// =============================================================================
// Payload Stripping
// =============================================================================

// Strip removes the fields the actor is not allowed to change from an
// outgoing record. In edit mode a field whose value equals the original is
// kept, since it is not a change.
func Strip(kind domain.RecordKind, mode domain.FormMode, actor auth.Actor, record, original domain.Record) domain.Record {
	out := record.Clone()
	for field, value := range record {
		if auth.CanEditField(actor, kind, field, value) {
			continue
		}
		if prev, ok := original[field]; ok && prev == value && mode == domain.ModeEdit {
			continue
		}
		delete(out, field)
	}
	return out
}
