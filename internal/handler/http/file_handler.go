package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/file"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

type FileHandler struct {
	service file.Service
	maxSize int64
}

func NewFileHandler(service file.Service, maxSize int64) *FileHandler {
	return &FileHandler{service: service, maxSize: maxSize}
}

func (h *FileHandler) RegisterRoutes(router chi.Router) {
	router.Post("/files", h.handleUpload)
}

func (h *FileHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		log.Warn().Err(err).Msg("Failed to parse multipart form")
		respondWithError(w, http.StatusBadRequest, "File not provided")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	src, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "File not provided")
		return
	}
	defer src.Close()

	if header.Size > h.maxSize {
		respondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	created, err := h.service.Upload(r.Context(), header.Filename, contentType, src, header.Size)
	if err != nil {
		log.Error().Err(err).Str("file_name", header.Filename).Msg("Failed to upload file via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}
