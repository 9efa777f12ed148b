package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrPasswordMismatch   = errors.New("password does not match")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service interface {
	CreateUser(ctx context.Context, user *User, password string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateInput) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateUser(ctx context.Context, user *User, password string) (*User, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate password hash")
		return nil, fmt.Errorf("internal error hashing password: %w", err)
	}
	user.PasswordHash = string(hash)

	createdID, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	user.ID = createdID
	log.Info().Int64("user_id", user.ID).Msg("service: user created")

	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to get user by id")
		return nil, fmt.Errorf("failed to get user by id '%d': %w", id, err)
	}

	return user, nil
}

func (s *service) UpdateUser(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	current, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != "" && input.Email != current.Email {
		_, err := s.repo.GetByEmail(ctx, input.Email)
		switch {
		case err == nil:
			return nil, ErrEmailExists
		case !errors.Is(err, ErrNotFound):
			log.Error().Err(err).Int64("user_id", id).Msg("service: failed to check email availability")
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		current.Email = input.Email
	}

	if input.Name != "" {
		current.Name = input.Name
	}

	if input.Password != "" {
		if input.OldPassword == "" ||
			bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(input.OldPassword)) != nil {
			log.Warn().Int64("user_id", id).Msg("service: old password mismatch on profile update")
			return nil, ErrPasswordMismatch
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error().Err(err).Msg("service: failed to generate password hash")
			return nil, fmt.Errorf("failed to generate hash password: %w", err)
		}
		current.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrNotFound) {
			return nil, err
		}

		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to update user")
		return nil, fmt.Errorf("failed to update user by id '%d': %w", id, err)
	}

	return current, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("service: failed to get user by email")
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
