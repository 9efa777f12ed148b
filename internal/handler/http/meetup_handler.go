package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/file"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
)

const dateLayout = "2006-01-02"

type MeetupRequest struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description" validate:"required"`
	Location    string    `json:"location" validate:"required,max=255"`
	Date        time.Time `json:"date" validate:"required"`
	FileID      *int64    `json:"file_id" validate:"omitempty,gt=0"`
}

func (req MeetupRequest) input() meetup.Input {
	return meetup.Input{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		FileID:      req.FileID,
	}
}

type MeetupResponse struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Location    string        `json:"location"`
	Date        time.Time     `json:"date"`
	Past        bool          `json:"past"`
	UserID      int64         `json:"user_id"`
	FileID      *int64        `json:"file_id,omitempty"`
	Organizer   *UserResponse `json:"organizer,omitempty"`
	File        *file.File    `json:"file,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func newMeetupResponse(m *meetup.Meetup, now time.Time) MeetupResponse {
	resp := MeetupResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Location:    m.Location,
		Date:        m.Date,
		Past:        m.Past(now),
		UserID:      m.UserID,
		FileID:      m.FileID,
		File:        m.File,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Organizer != nil {
		organizer := newUserResponse(m.Organizer)
		resp.Organizer = &organizer
	}
	return resp
}

func newMeetupResponses(meetups []meetup.Meetup, now time.Time) []MeetupResponse {
	resp := make([]MeetupResponse, 0, len(meetups))
	for i := range meetups {
		resp = append(resp, newMeetupResponse(&meetups[i], now))
	}
	return resp
}

type MeetupHandler struct {
	service  meetup.Service
	validate *validator.Validate
	now      func() time.Time
}

func NewMeetupHandler(service meetup.Service) *MeetupHandler {
	return &MeetupHandler{
		service:  service,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (h *MeetupHandler) RegisterRoutes(router chi.Router) {
	router.Get("/meetups", h.handleListMeetups)
	router.Post("/meetups", h.handleCreateMeetup)
	router.Put("/meetups/{id}", h.handleUpdateMeetup)
	router.Delete("/meetups/{id}", h.handleDeleteMeetup)
	router.Get("/organizing", h.handleListOrganizing)
}

func (h *MeetupHandler) handleListMeetups(w http.ResponseWriter, r *http.Request) {
	day := h.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid date parameter")
			return
		}
		day = parsed
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid page parameter")
			return
		}
		page = parsed
	}

	meetups, err := h.service.ListMeetups(r.Context(), day, page)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list meetups via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list meetups")
		return
	}

	respondWithJSON(w, http.StatusOK, newMeetupResponses(meetups, h.now()))
}

func (h *MeetupHandler) handleListOrganizing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	meetups, err := h.service.ListOrganizing(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to list organizer meetups via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list meetups")
		return
	}

	respondWithJSON(w, http.StatusOK, newMeetupResponses(meetups, h.now()))
}

func (h *MeetupHandler) handleCreateMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	var requestPayload MeetupRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.CreateMeetup(r.Context(), userID, requestPayload.input())
	if err != nil {
		h.respondWithMeetupError(w, err, "Failed to create meetup")
		return
	}

	respondWithJSON(w, http.StatusCreated, newMeetupResponse(created, h.now()))
}

func (h *MeetupHandler) handleUpdateMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	meetupID, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload MeetupRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.UpdateMeetup(r.Context(), userID, meetupID, requestPayload.input())
	if err != nil {
		h.respondWithMeetupError(w, err, "Failed to update meetup")
		return
	}

	respondWithJSON(w, http.StatusOK, newMeetupResponse(updated, h.now()))
}

func (h *MeetupHandler) handleDeleteMeetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(w, r)
	if !ok {
		return
	}

	meetupID, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteMeetup(r.Context(), userID, meetupID); err != nil {
		h.respondWithMeetupError(w, err, "Failed to delete meetup")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MeetupHandler) respondWithMeetupError(w http.ResponseWriter, err error, fallback string) {
	statusCode := mapErrorToStatusCode(err)

	var clientMessage string
	switch {
	case errors.Is(err, meetup.ErrNotFound):
		clientMessage = "Meetup not found"
	case errors.Is(err, meetup.ErrNotOrganizer):
		clientMessage = "You are not the organizer of this meetup"
	case errors.Is(err, meetup.ErrPastMeetup):
		clientMessage = "Can't change past meetups"
	case errors.Is(err, meetup.ErrPastDate):
		clientMessage = "Past dates are not permitted"
	case errors.Is(err, meetup.ErrInvalidFile):
		clientMessage = "Invalid file"
	case errors.Is(err, meetup.ErrScheduleConflict):
		clientMessage = "An attendee is already registered to another meetup at this date"
	default:
		log.Error().Err(err).Msg(fallback)
		clientMessage = fallback
	}

	respondWithError(w, statusCode, clientMessage)
}
