package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/form"
	"github.com/artpar/shopdesk/internal/core/normalize"
	"github.com/artpar/shopdesk/internal/shell/records"
)

// =============================================================================
// Form Session Handlers
// =============================================================================

func (h *Handler) handleOpenForm(w http.ResponseWriter, r *http.Request) {
	var req OpenFormRequest
	if !h.decode(w, r, &req) {
		return
	}

	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	var existing domain.Record
	if mode != domain.ModeAdd {
		if req.RecordID == "" {
			h.writeError(w, http.StatusBadRequest, "record_id is required in "+string(mode)+" mode", "validation_error")
			return
		}
		existing, err = records.Load(r.Context(), h.store, kind, req.RecordID)
		if err != nil {
			h.writeSessionError(w, err)
			return
		}
	}

	actor := auth.FromContext(r.Context())
	id, err := h.sessions.Open(kind, mode, existing, actor, form.WithPolicy(h.policy))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	var resp FormResponse
	h.sessions.Do(id, actor, func(s *form.Session) error {
		resp = sessionResponse(id, s)
		return nil
	})

	h.logger.Info("form opened",
		"session_id", id,
		"kind", kind,
		"mode", mode,
		"record_id", req.RecordID,
		"actor", actor.UserID,
	)
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var resp FormResponse
	err := h.sessions.Do(id, auth.FromContext(r.Context()), func(s *form.Session) error {
		resp = sessionResponse(id, s)
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleChangeField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ChangeFieldRequest
	if !h.decode(w, r, &req) {
		return
	}

	var resp FormResponse
	err := h.sessions.Do(id, auth.FromContext(r.Context()), func(s *form.Session) error {
		if err := s.Change(req.Field, req.Value); err != nil {
			return err
		}
		resp = sessionResponse(id, s)
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleSubmitForm validates the session and writes the accepted record.
// A rejected session stays open for corrections. A record the store refuses
// ends the session, since acceptance is final.
func (h *Handler) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := auth.FromContext(r.Context())

	var (
		status   int
		body     any
		recordID string
		kind     domain.RecordKind
		mode     domain.FormMode
	)
	err := h.sessions.Do(id, actor, func(s *form.Session) error {
		kind, mode = s.Kind(), s.Mode()
		if s.State() == form.StateClosed {
			return form.ErrSessionClosed
		}

		accepted, errs := s.Submit()
		if len(errs) > 0 {
			status, body = http.StatusUnprocessableEntity, sessionResponse(id, s)
			return nil
		}
		if mode == domain.ModeView {
			status, body = http.StatusOK, SubmitResponse{
				RecordID: s.RecordID(),
				Kind:     string(kind),
				Mode:     string(mode),
				Values:   s.Display(),
			}
			return nil
		}

		saved, err := records.Save(r.Context(), h.store, kind, mode, s.Original(), accepted)
		if err != nil {
			var rejected *records.RejectedError
			if !errors.As(err, &rejected) {
				return err
			}
			s.Close()
			status, body = http.StatusConflict, ErrorResponse{
				Error:       "record conflicts with a stored record",
				Code:        "conflict",
				FieldErrors: rejected.Errors,
			}
			return nil
		}

		// The record is already persisted; answer from the accepted values.
		stored, err := records.Load(r.Context(), h.store, kind, saved)
		if err != nil {
			h.logger.Warn("failed to reload saved record",
				"session_id", id,
				"kind", kind,
				"record_id", saved,
				"error", err,
			)
			stored = s.Original().Merge(accepted)
			stored[domain.FieldID] = saved
		}
		recordID = saved
		status = http.StatusOK
		if mode == domain.ModeAdd {
			status = http.StatusCreated
		}
		body = SubmitResponse{
			RecordID: saved,
			Kind:     string(kind),
			Mode:     string(mode),
			Values:   display(stored),
			Warnings: s.Warnings(),
		}
		s.Close()
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	if recordID != "" {
		h.logger.Info("form accepted",
			"session_id", id,
			"kind", kind,
			"mode", mode,
			"record_id", recordID,
			"actor", actor.UserID,
		)
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) handleCloseForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.sessions.Close(id, auth.FromContext(r.Context())); err != nil {
		h.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Response Builders
// =============================================================================

func sessionResponse(id string, s *form.Session) FormResponse {
	editable := make(map[string]bool)
	for _, field := range domain.FieldsFor(s.Kind()) {
		editable[field] = s.Editable(field)
	}

	resp := FormResponse{
		ID:          id,
		Kind:        string(s.Kind()),
		Mode:        string(s.Mode()),
		State:       s.State().String(),
		RecordID:    s.RecordID(),
		Values:      s.Display(),
		FieldErrors: s.Errors(),
		Warnings:    s.Warnings(),
		Editable:    editable,
	}
	if s.Kind() == domain.KindUser && s.Mode() != domain.ModeView && !s.State().IsTerminal() {
		strength := s.PasswordStrength()
		resp.PasswordStrength = &strength
	}
	return resp
}

// display masks a stored record for output.
func display(r domain.Record) domain.Record {
	out := r.Clone()
	delete(out, domain.FieldPassword)
	if v, ok := out[domain.FieldCPF]; ok {
		out[domain.FieldCPF] = normalize.MaskCPF(v)
	}
	if v, ok := out[domain.FieldPhone]; ok {
		out[domain.FieldPhone] = normalize.MaskPhone(v)
	}
	return out
}
