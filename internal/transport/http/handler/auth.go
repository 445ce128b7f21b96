package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classkit/api/internal/application/registration"
	"github.com/classkit/api/internal/domain"
	"github.com/classkit/api/internal/pkg/validate"
)

// AuthHandler handles registration and email confirmation.
type AuthHandler struct {
	svc registration.Service
}

func NewAuthHandler(svc registration.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register accepts a registration submission. The account is not created
// yet; a confirmation link is emailed and the submission is parked until
// the link is followed.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Request(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "confirmation email sent"})
}

// Confirm consumes a confirmation token.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	outcome, u, err := h.svc.Confirm(r.Context(), token)
	if err != nil {
		httpError(w, err)
		return
	}
	switch outcome {
	case registration.OutcomePromoted:
		writeJSON(w, http.StatusCreated, u)
	case registration.OutcomeAlreadyExists:
		writeError(w, http.StatusConflict, "email already registered")
	default:
		writeError(w, http.StatusBadRequest, "invalid or expired confirmation link")
	}
}
