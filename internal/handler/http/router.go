package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/meetapp/internal/auth"
	"github.com/vasiliy-maslov/meetapp/internal/file"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
	"github.com/vasiliy-maslov/meetapp/internal/registration"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

// Deps holds everything the router hands to its handlers.
type Deps struct {
	Users         user.Service
	Files         file.Service
	Meetups       meetup.Service
	Registrations registration.Service
	Tokens        *auth.TokenManager
	MaxUploadSize int64
}

// NewRouter builds the route table. Signup and login are public, every
// other route except the health check requires a bearer token.
func NewRouter(d Deps) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	userHandler := NewUserHandler(d.Users)
	userHandler.RegisterRoutes(router)
	NewSessionHandler(d.Users, d.Tokens).RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(d.Tokens))

		userHandler.RegisterAuthRoutes(r)
		NewFileHandler(d.Files, d.MaxUploadSize).RegisterRoutes(r)
		NewMeetupHandler(d.Meetups).RegisterRoutes(r)
		NewRegistrationHandler(d.Registrations).RegisterRoutes(r)
	})

	return router
}
