package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest changes the requester's profile. A new password needs
// the current one and a matching confirmation.
type UpdateUserRequest struct {
	Name            string `json:"name" validate:"omitempty,min=2"`
	Email           string `json:"email" validate:"omitempty,email"`
	OldPassword     string `json:"old_password" validate:"required_with=Password"`
	Password        string `json:"password" validate:"omitempty,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users", h.handleCreateUser)
}

// RegisterAuthRoutes mounts the routes that act on the authenticated user.
func (h *UserHandler) RegisterAuthRoutes(router chi.Router) {
	router.Put("/users", h.handleUpdateUser)
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateUserRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	domainUser := user.User{
		Name:  requestPayload.Name,
		Email: requestPayload.Email,
	}

	createdUser, err := h.service.CreateUser(r.Context(), &domainUser, requestPayload.Password)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		if errors.Is(err, user.ErrEmailExists) {
			clientMessage = "User already exists"
		} else {
			log.Error().Err(err).Msg("Failed to create user via service")
			clientMessage = "Failed to create user"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, newUserResponse(createdUser))
}

func (h *UserHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateUserRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), userID, user.UpdateInput{
		Name:        requestPayload.Name,
		Email:       requestPayload.Email,
		OldPassword: requestPayload.OldPassword,
		Password:    requestPayload.Password,
	})
	if err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		switch {
		case errors.Is(err, user.ErrNotFound):
			clientMessage = "User not found"
		case errors.Is(err, user.ErrEmailExists):
			clientMessage = "User already exists"
		case errors.Is(err, user.ErrPasswordMismatch):
			clientMessage = "Password does not match"
		default:
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to update user via service")
			clientMessage = "Failed to update user"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, newUserResponse(updated))
}
