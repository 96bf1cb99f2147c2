package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/greenroute/greenroute/internal/api/response"
	"github.com/greenroute/greenroute/internal/auth"
)

// GuestSessionIssuer creates anonymous sessions.
type GuestSessionIssuer interface {
	NewGuestSession() (*auth.Session, error)
}

// AuthHandler handles session endpoints.
type AuthHandler struct {
	issuer GuestSessionIssuer
	logger zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(issuer GuestSessionIssuer, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, logger: logger}
}

// CreateGuestSession handles POST /api/auth/guest.
func (h *AuthHandler) CreateGuestSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.issuer.NewGuestSession()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue guest session")
		response.InternalError(w, r, "failed to create session")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.Created(w, r, "", session)
}
