package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/mail"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

var (
	ErrInvalidMeetup = errors.New("meetup does not exist")
	ErrOrganizer     = errors.New("user is the organizer of this meetup")
	ErrPastMeetup    = errors.New("meetup already happened")
	ErrTimeConflict  = errors.New("user is already registered to a meetup at this date")
)

// MeetupFinder loads a meetup together with its organizer.
type MeetupFinder interface {
	GetByID(ctx context.Context, id int64) (*meetup.Meetup, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Enqueuer schedules background work under a job key.
type Enqueuer interface {
	Add(ctx context.Context, key string, payload any) error
}

type Service interface {
	Register(ctx context.Context, userID, meetupID int64) (*Registration, error)
	ListUpcoming(ctx context.Context, userID int64) ([]Upcoming, error)
}

type Option func(*service)

// WithClock replaces time.Now as the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	repo    Repository
	meetups MeetupFinder
	users   UserFinder
	queue   Enqueuer
	now     func() time.Time
}

func NewService(repo Repository, meetups MeetupFinder, users UserFinder, queue Enqueuer, opts ...Option) Service {
	s := &service{repo: repo, meetups: meetups, users: users, queue: queue, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Register(ctx context.Context, userID, meetupID int64) (*Registration, error) {
	m, err := s.meetups.GetByID(ctx, meetupID)
	if err != nil {
		if errors.Is(err, meetup.ErrNotFound) {
			log.Warn().Int64("meetup_id", meetupID).Int64("user_id", userID).Msg("service: registration to unknown meetup")
			return nil, ErrInvalidMeetup
		}
		log.Error().Err(err).Int64("meetup_id", meetupID).Msg("service: failed to fetch meetup for registration")
		return nil, fmt.Errorf("service: failed to fetch meetup: %w", err)
	}

	if m.UserID == userID {
		return nil, ErrOrganizer
	}

	// A meetup that starts right now is already closed for registration.
	if !m.Date.After(s.now()) {
		return nil, ErrPastMeetup
	}

	_, err = s.repo.FindByUserAndDate(ctx, userID, m.Date)
	if err == nil {
		log.Warn().Int64("meetup_id", meetupID).Int64("user_id", userID).Msg("service: registration at an occupied date")
		return nil, ErrTimeConflict
	}
	if !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to check registrations at meetup date")
		return nil, fmt.Errorf("service: failed to check registrations: %w", err)
	}

	reg := &Registration{UserID: userID, MeetupID: meetupID, MeetupDate: m.Date}
	id, err := s.repo.Create(ctx, reg)
	if err != nil {
		if errors.Is(err, ErrTimeConflict) {
			return nil, ErrTimeConflict
		}
		log.Error().Err(err).Int64("meetup_id", meetupID).Int64("user_id", userID).Msg("service: failed to create registration")
		return nil, fmt.Errorf("service: failed to create registration: %w", err)
	}
	reg.ID = id

	attendee, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to fetch attendee")
		return nil, fmt.Errorf("service: failed to fetch attendee: %w", err)
	}

	payload := mail.RegistrationPayload{Meetup: *m, User: *attendee}
	if err := s.queue.Add(ctx, mail.RegistrationMailKey, payload); err != nil {
		log.Error().Err(err).Int64("registration_id", id).Msg("service: failed to enqueue registration mail")
		return nil, fmt.Errorf("service: failed to enqueue registration mail: %w", err)
	}

	log.Info().Int64("registration_id", id).Int64("meetup_id", meetupID).Int64("user_id", userID).Msg("service: user registered to meetup")
	return reg, nil
}

func (s *service) ListUpcoming(ctx context.Context, userID int64) ([]Upcoming, error) {
	list, err := s.repo.ListUpcoming(ctx, userID, s.now())
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to list registrations")
		return nil, fmt.Errorf("service: failed to list registrations: %w", err)
	}
	return list, nil
}
