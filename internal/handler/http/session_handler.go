package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/auth"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

type CreateSessionRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type SessionHandler struct {
	users    user.Service
	tokens   *auth.TokenManager
	validate *validator.Validate
}

func NewSessionHandler(users user.Service, tokens *auth.TokenManager) *SessionHandler {
	return &SessionHandler{users: users, tokens: tokens, validate: validator.New()}
}

func (h *SessionHandler) RegisterRoutes(router chi.Router) {
	router.Post("/sessions", h.handleCreateSession)
}

func (h *SessionHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateSessionRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	u, err := h.users.Authenticate(r.Context(), requestPayload.Email, requestPayload.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("Failed to authenticate user via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	token, err := h.tokens.Generate(u.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("Failed to generate token")
		respondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respondWithJSON(w, http.StatusOK, SessionResponse{User: newUserResponse(u), Token: token})
}
