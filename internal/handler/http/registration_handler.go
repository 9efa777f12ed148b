package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/registration"
)

type RegistrationHandler struct {
	service registration.Service
}

func NewRegistrationHandler(service registration.Service) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

func (h *RegistrationHandler) RegisterRoutes(router chi.Router) {
	router.Post("/meetups/{meetupId}/register", h.handleRegister)
	router.Get("/registrations", h.handleListRegistrations)
}

func (h *RegistrationHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	// An unparsable id cannot name a meetup.
	meetupID, err := parseIDParam(r, "meetupId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid meetup")
		return
	}

	reg, err := h.service.Register(r.Context(), userID, meetupID)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)

		var clientMessage string
		switch {
		case errors.Is(err, registration.ErrInvalidMeetup):
			clientMessage = "Invalid meetup"
		case errors.Is(err, registration.ErrOrganizer):
			clientMessage = "You already are the organizer"
		case errors.Is(err, registration.ErrPastMeetup):
			clientMessage = "Can't register to past meetups"
		case errors.Is(err, registration.ErrTimeConflict):
			clientMessage = "Can't register to two meetups happening at the same time"
		default:
			log.Error().Err(err).Int64("meetup_id", meetupID).Int64("user_id", userID).Msg("Failed to register via service")
			clientMessage = "Failed to register to meetup"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, reg)
}

func (h *RegistrationHandler) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListUpcoming(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to list registrations via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list registrations")
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}
