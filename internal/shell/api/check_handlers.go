package api

import (
	"errors"
	"net/http"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/normalize"
	"github.com/artpar/shopdesk/internal/core/validation"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// Field Check Handlers
// =============================================================================

// These run the same checks the form rules use, one field at a time, so the
// UI can flag a value while it is being typed.

func (h *Handler) handleCheckCPF(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, CPFCheckResponse{
		Valid:  validation.IsValidCPF(req.Value),
		Digits: normalize.NormalizeCPF(req.Value),
		Masked: normalize.MaskCPF(req.Value),
		Policy: validation.ActiveCPFPolicy().String(),
	})
}

func (h *Handler) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	normalized := normalize.NormalizeEmail(req.Value)
	h.writeJSON(w, http.StatusOK, EmailCheckResponse{
		Valid:      validation.IsValidEmail(normalized),
		Normalized: normalized,
	})
}

func (h *Handler) handleCheckPassword(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusOK, PasswordCheckResponse{
		PasswordStrength: validation.CheckPassword(req.Value),
		Message:          validation.PasswordStrengthMessage(req.Value),
	})
}

// =============================================================================
// Auth Handlers
// =============================================================================

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if len(h.tokenSecret) == 0 {
		h.writeError(w, http.StatusNotFound, "token login is disabled", "not_found")
		return
	}

	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.store.AuthenticateUser(r.Context(), normalize.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) || errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("login failed", "email", req.Email, "remote_addr", r.RemoteAddr)
			h.writeError(w, http.StatusUnauthorized, "invalid email or password", "unauthorized")
			return
		}
		h.writeSessionError(w, err)
		return
	}

	actor := auth.Actor{
		UserID:        user.ID,
		Name:          user.Name,
		Role:          user.Role,
		Authenticated: true,
	}
	now := h.now()
	token, err := auth.IssueToken(actor, h.tokenSecret, h.tokenTTL, now)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	h.writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(h.tokenTTL),
		Actor:     actor,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())

	roles := auth.AllowedRoles(actor)
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	h.writeJSON(w, http.StatusOK, MeResponse{
		Actor:                  actor,
		AllowedRoles:           names,
		CanSetPromotionalPrice: auth.CanSetPromotionalPrice(actor),
		CanGrantAdmin:          auth.CanGrantAdmin(actor),
	})
}
