// Package form implements the form reconciliation state machine: it owns the
// edit buffer of one record, normalizes every change, clears stale errors and
// runs the record rules on submit.
//
// This is part of the Functional Core. A Session does no I/O and is not safe
// for concurrent use; callers serialize access.
package form

import (
	"errors"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/normalize"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/core/validation"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrReadOnly      = errors.New("form is read-only")
	ErrSessionClosed = errors.New("form session is closed")
	ErrUnknownField  = errors.New("unknown field")
)

// =============================================================================
// Session
// =============================================================================

// Session is one open form over one record.
type Session struct {
	kind   domain.RecordKind
	mode   domain.FormMode
	actor  auth.Actor
	policy rules.Policy

	input     domain.Record
	original  domain.Record
	buffer    domain.Record
	finalized domain.Record
	errors    domain.FieldErrors
	warnings  domain.FieldErrors
	state     State
}

// Option configures a Session.
type Option func(*Session)

// WithPolicy sets the rule policy. The default is rules.DefaultPolicy().
func WithPolicy(p rules.Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// Open seeds a new session. existing may be nil in add mode.
//
// The buffer receives a field-by-field copy of existing, restricted to the
// kind's fields plus id, with every value normalized. Passwords are never
// seeded. In add mode every field starts present and blank, and prefilled
// values the actor may not set are dropped.
func Open(kind domain.RecordKind, mode domain.FormMode, existing domain.Record, actor auth.Actor, opts ...Option) (*Session, error) {
	if !kind.IsValid() {
		return nil, domain.ErrUnknownKind
	}
	if !mode.IsValid() {
		return nil, domain.ErrUnknownMode
	}

	s := &Session{
		kind:     kind,
		mode:     mode,
		actor:    actor,
		policy:   rules.DefaultPolicy(),
		errors:   domain.FieldErrors{},
		warnings: domain.FieldErrors{},
		state:    StateSeeded,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.input = existing.Clone()
	s.buffer = seed(kind, mode, existing, actor)
	s.original = s.buffer.Clone()
	return s, nil
}

func seed(kind domain.RecordKind, mode domain.FormMode, existing domain.Record, actor auth.Actor) domain.Record {
	buf := domain.Record{}
	if id, ok := existing[domain.FieldID]; ok {
		buf[domain.FieldID] = id
	}
	for _, field := range domain.FieldsFor(kind) {
		v, ok := existing[field]
		if !ok && mode != domain.ModeAdd {
			continue
		}
		v = normalize.For(kind, field)(v)
		if mode == domain.ModeAdd && !auth.CanEditField(actor, kind, field, v) {
			v = ""
		}
		buf[field] = v
	}
	if domain.HasField(kind, domain.FieldPassword) && mode != domain.ModeView {
		buf[domain.FieldPassword] = ""
	} else {
		delete(buf, domain.FieldPassword)
	}
	return buf
}

// =============================================================================
// Transitions
// =============================================================================

// Change normalizes raw and stores it in field, clearing that field's error
// and warning. A change the actor is not permitted to make is ignored.
func (s *Session) Change(field, raw string) error {
	if s.state.IsTerminal() {
		return ErrSessionClosed
	}
	if s.mode == domain.ModeView {
		return ErrReadOnly
	}
	if !domain.HasField(s.kind, field) {
		return ErrUnknownField
	}

	value := normalize.For(s.kind, field)(raw)
	if !auth.CanEditField(s.actor, s.kind, field, value) {
		return nil
	}

	s.buffer[field] = value
	s.errors.Clear(field)
	s.warnings.Clear(field)
	s.state = StateEditing
	return nil
}

// Submit validates the whole buffer.
//
// On failure it returns a nil record and the complete error map, and the
// session moves to StateRejected. On success it returns a copy of the
// finalized record, with fields the actor may not set removed and, in edit
// mode, a blank password dropped. After acceptance Submit returns the same
// record again. A closed session returns nil and nil.
//
// In view mode Submit returns the record the session was opened with,
// exactly as given.
func (s *Session) Submit() (domain.Record, domain.FieldErrors) {
	switch s.state {
	case StateClosed:
		return nil, nil
	case StateAccepted:
		return s.finalized.Clone(), domain.FieldErrors{}
	}
	if s.mode == domain.ModeView {
		return s.input.Clone(), domain.FieldErrors{}
	}

	s.state = StateValidating
	outcome := rules.Evaluate(rules.Input{
		Kind:     s.kind,
		Mode:     s.mode,
		Record:   s.buffer,
		Original: s.original,
		Actor:    s.actor,
		Policy:   s.policy,
	})
	s.errors = outcome.Errors
	s.warnings = outcome.Warnings

	if !outcome.Valid() {
		s.state = StateRejected
		return nil, s.errors.Clone()
	}

	out := rules.Strip(s.kind, s.mode, s.actor, s.buffer, s.original)
	if s.mode == domain.ModeEdit && out[domain.FieldPassword] == "" {
		delete(out, domain.FieldPassword)
	}
	s.finalized = normalize.Finalize(s.kind, out)
	s.buffer = nil
	s.state = StateAccepted
	return s.finalized.Clone(), domain.FieldErrors{}
}

// Close discards the session. It is valid in any state.
func (s *Session) Close() {
	s.input = nil
	s.buffer = nil
	s.finalized = nil
	s.errors = domain.FieldErrors{}
	s.warnings = domain.FieldErrors{}
	s.state = StateClosed
}

// =============================================================================
// Queries
// =============================================================================

func (s *Session) Kind() domain.RecordKind { return s.kind }
func (s *Session) Mode() domain.FormMode   { return s.mode }
func (s *Session) Actor() auth.Actor       { return s.actor }
func (s *Session) State() State            { return s.state }

// RecordID returns the id of the seeded record, empty in add mode.
func (s *Session) RecordID() string {
	return s.original[domain.FieldID]
}

// Original returns a copy of the record the session was seeded with.
func (s *Session) Original() domain.Record {
	return s.original.Clone()
}

// Editable reports whether the actor can change field in this session.
// The UI uses it to disable inputs.
func (s *Session) Editable(field string) bool {
	if s.state.IsTerminal() || s.mode == domain.ModeView || !domain.HasField(s.kind, field) {
		return false
	}
	return auth.CanEditField(s.actor, s.kind, field, "")
}

// Values returns a copy of the raw buffer.
func (s *Session) Values() domain.Record {
	if s.state == StateAccepted {
		return s.finalized.Clone()
	}
	return s.buffer.Clone()
}

// Display returns the buffer as it should be rendered: CPF and phone masked,
// password omitted.
func (s *Session) Display() domain.Record {
	out := s.Values()
	delete(out, domain.FieldPassword)
	if v, ok := out[domain.FieldCPF]; ok {
		out[domain.FieldCPF] = normalize.MaskCPF(v)
	}
	if v, ok := out[domain.FieldPhone]; ok {
		out[domain.FieldPhone] = normalize.MaskPhone(v)
	}
	return out
}

// Errors returns a copy of the current field errors.
func (s *Session) Errors() domain.FieldErrors {
	return s.errors.Clone()
}

// Warnings returns advisory messages from the last submit.
func (s *Session) Warnings() domain.FieldErrors {
	return s.warnings.Clone()
}

// PasswordStrength reports the strength of the password currently in the buffer.
func (s *Session) PasswordStrength() validation.PasswordStrength {
	return validation.CheckPassword(s.buffer[domain.FieldPassword])
}
