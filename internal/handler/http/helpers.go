package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/auth"
	"github.com/vasiliy-maslov/meetapp/internal/file"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
	"github.com/vasiliy-maslov/meetapp/internal/registration"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

// ValidationErrorResponse is returned when a request body fails validation.
// Error carries every message so clients reading only "error" still see them.
type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, meetup.ErrNotFound),
		errors.Is(err, file.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, meetup.ErrScheduleConflict):
		return http.StatusConflict
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, meetup.ErrNotOrganizer):
		return http.StatusForbidden
	case errors.Is(err, user.ErrPasswordMismatch),
		errors.Is(err, user.ErrEmptyPassword),
		errors.Is(err, meetup.ErrPastDate),
		errors.Is(err, meetup.ErrPastMeetup),
		errors.Is(err, meetup.ErrInvalidFile),
		errors.Is(err, registration.ErrInvalidMeetup),
		errors.Is(err, registration.ErrOrganizer),
		errors.Is(err, registration.ErrPastMeetup),
		errors.Is(err, registration.ErrTimeConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate reads a JSON body into dst and runs the struct
// validation. It writes the error response itself and reports false on
// failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}

	err := validate.Struct(dst)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := formatValidationErrors(validationErrors)
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed: " + joinDetails(details),
			Details: details,
		})
		return false
	}

	log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
	return false
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "required_with":
			details[field] = fmt.Sprintf("Field '%s' is required", field)
		case "min":
			details[field] = fmt.Sprintf("Field '%s' must be at least %s characters long", field, fe.Param())
		case "max":
			details[field] = fmt.Sprintf("Field '%s' must be at most %s characters long", field, fe.Param())
		case "email":
			details[field] = fmt.Sprintf("Field '%s' must be a valid email address", field)
		case "eqfield":
			details[field] = fmt.Sprintf("Field '%s' must match '%s'", field, fe.Param())
		default:
			details[field] = fmt.Sprintf("Field '%s' is invalid", field)
		}
	}
	return details
}

func joinDetails(details map[string]string) string {
	messages := make([]string, 0, len(details))
	for _, msg := range details {
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	return strings.Join(messages, "; ")
}

// requesterID returns the user id placed in the context by auth.Middleware.
func requesterID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Token invalid")
		return 0, false
	}
	return id, true
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return id, nil
}
