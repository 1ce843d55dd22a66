package domain

import (
	"sort"
	"strings"
)

// =============================================================================
// Record
// =============================================================================

// Record is the editable form of any entity: field name to raw form value.
// A missing key and an empty value are different things in edit mode, where
// a missing key means "keep the stored value".
type Record map[string]string

// Clone returns a shallow copy. A nil record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the field is present, even if blank.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Trimmed returns the field value without surrounding whitespace.
func (r Record) Trimmed(field string) string {
	return strings.TrimSpace(r[field])
}

// Blank reports whether the field is missing or whitespace only.
func (r Record) Blank(field string) bool {
	return r.Trimmed(field) == ""
}

// Merge returns a copy of r overlaid with the fields of over.
func (r Record) Merge(over Record) Record {
	out := r.Clone()
	for k, v := range over {
		out[k] = v
	}
	return out
}

// =============================================================================
// Field Errors
// =============================================================================

// FieldErrors maps field name to a human-readable message.
// An empty map means the record passed validation.
type FieldErrors map[string]string

// Has reports whether the field has an error.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Clear removes the error for a field, if any.
func (e FieldErrors) Clear(field string) {
	delete(e, field)
}

// Empty reports whether there are no errors.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Fields returns the fields with errors in sorted order.
func (e FieldErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Clone returns a copy that never aliases the receiver.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
