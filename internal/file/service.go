package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader, size int64) (*File, error)
	GetByID(ctx context.Context, id int64) (*File, error)
	Resolve(f *File)
}

type service struct {
	repo      Repository
	storage   Storage
	publicURL string
}

func NewService(repo Repository, storage Storage, publicURL string) Service {
	return &service{repo: repo, storage: storage, publicURL: publicURL}
}

// StorageKey builds a dated, collision free object key that keeps the
// original extension.
func StorageKey(now time.Time, name string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate storage key: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("files/%04d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), id, ext), nil
}

func (s *service) Upload(ctx context.Context, name, contentType string, body io.Reader, size int64) (*File, error) {
	key, err := StorageKey(time.Now().UTC(), name)
	if err != nil {
		return nil, err
	}

	if err := s.storage.Put(ctx, key, contentType, body, size); err != nil {
		log.Error().Err(err).Str("key", key).Msg("service: failed to store file")
		return nil, fmt.Errorf("service: failed to store file: %w", err)
	}

	f := &File{Name: name, Path: key}
	id, err := s.repo.Create(ctx, f)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("service: failed to save file record")
		return nil, fmt.Errorf("service: failed to save file: %w", err)
	}
	f.ID = id
	s.Resolve(f)

	log.Info().Int64("file_id", id).Str("key", key).Int64("size", size).Msg("service: file uploaded")
	return f, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("file_id", id).Msg("service: failed to get file")
		return nil, fmt.Errorf("service: failed to get file: %w", err)
	}
	s.Resolve(f)
	return f, nil
}

// Resolve fills the public URL of a file loaded outside this service.
func (s *service) Resolve(f *File) {
	f.ResolveURL(s.publicURL)
}
