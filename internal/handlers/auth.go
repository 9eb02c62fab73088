package handlers

import (
	"errors"
	"net/http"

	"github.com/excommunicades/starnavi/internal/auth"
	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/models"

	"github.com/rs/zerolog/log"
)

// registerResponse is returned on successful registration alongside a
// fresh token so the client can start posting immediately.
type registerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// HandleRegister creates a new account.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, "username already exists")
		case errors.Is(err, database.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "email already exists")
		default:
			log.Error().Err(err).Str("username", req.Username).Msg("Registration failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to issue token after registration")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// HandleLogin exchanges credentials for a bearer token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	_, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("Login failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}
