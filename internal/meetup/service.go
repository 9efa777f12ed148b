package meetup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/file"
)

var (
	ErrPastDate     = errors.New("meetup date is in the past")
	ErrPastMeetup   = errors.New("meetup already happened")
	ErrNotOrganizer = errors.New("user is not the organizer of this meetup")
	ErrInvalidFile  = errors.New("file does not exist")
)

type Service interface {
	ListMeetups(ctx context.Context, day time.Time, page int) ([]Meetup, error)
	ListOrganizing(ctx context.Context, userID int64) ([]Meetup, error)
	GetMeetup(ctx context.Context, id int64) (*Meetup, error)
	CreateMeetup(ctx context.Context, userID int64, input Input) (*Meetup, error)
	UpdateMeetup(ctx context.Context, userID, id int64, input Input) (*Meetup, error)
	DeleteMeetup(ctx context.Context, userID, id int64) error
}

type Option func(*service)

// WithClock replaces time.Now as the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	repo  Repository
	files file.Service
	now   func() time.Time
}

func NewService(repo Repository, files file.Service, opts ...Option) Service {
	s := &service{repo: repo, files: files, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListMeetups(ctx context.Context, day time.Time, page int) ([]Meetup, error) {
	if page < 1 {
		page = 1
	}
	from, to := DayBounds(day)

	meetups, err := s.repo.ListByDate(ctx, from, to, PageSize, (page-1)*PageSize)
	if err != nil {
		log.Error().Err(err).Time("day", from).Int("page", page).Msg("service: failed to list meetups")
		return nil, fmt.Errorf("service: failed to list meetups: %w", err)
	}
	return s.withFileURLs(meetups), nil
}

func (s *service) ListOrganizing(ctx context.Context, userID int64) ([]Meetup, error) {
	meetups, err := s.repo.ListByOrganizer(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to list organizer meetups")
		return nil, fmt.Errorf("service: failed to list organizer meetups: %w", err)
	}
	return s.withFileURLs(meetups), nil
}

func (s *service) GetMeetup(ctx context.Context, id int64) (*Meetup, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("meetup_id", id).Msg("service: failed to fetch meetup by id")
		return nil, fmt.Errorf("service: failed to fetch meetup by id: %w", err)
	}
	s.files.Resolve(m.File)
	return m, nil
}

func (s *service) CreateMeetup(ctx context.Context, userID int64, input Input) (*Meetup, error) {
	if input.Date.Before(s.now()) {
		log.Warn().Int64("user_id", userID).Time("date", input.Date).Msg("service: meetup date in the past")
		return nil, ErrPastDate
	}

	if err := s.checkFile(ctx, input.FileID); err != nil {
		return nil, err
	}

	m := &Meetup{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Date:        input.Date.UTC(),
		UserID:      userID,
		FileID:      input.FileID,
	}

	id, err := s.repo.Create(ctx, m)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to create meetup in repository")
		return nil, fmt.Errorf("service: failed to create meetup: %w", err)
	}
	m.ID = id

	log.Info().Int64("meetup_id", id).Int64("user_id", userID).Msg("service: meetup created")
	return m, nil
}

func (s *service) UpdateMeetup(ctx context.Context, userID, id int64, input Input) (*Meetup, error) {
	m, err := s.ownedUpcoming(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Date.Before(s.now()) {
		return nil, ErrPastDate
	}

	if err := s.checkFile(ctx, input.FileID); err != nil {
		return nil, err
	}

	m.Title = input.Title
	m.Description = input.Description
	m.Location = input.Location
	m.Date = input.Date.UTC()
	m.FileID = input.FileID

	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrScheduleConflict) {
			log.Warn().Err(err).Int64("meetup_id", id).Msg("service: meetup update rejected by repository")
			return nil, err
		}
		log.Error().Err(err).Int64("meetup_id", id).Msg("service: failed to update meetup")
		return nil, fmt.Errorf("service: failed to update meetup: %w", err)
	}

	log.Info().Int64("meetup_id", id).Int64("user_id", userID).Msg("service: meetup updated")
	return s.GetMeetup(ctx, id)
}

func (s *service) DeleteMeetup(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedUpcoming(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Int64("meetup_id", id).Msg("service: failed to delete meetup")
		return fmt.Errorf("service: failed to delete meetup: %w", err)
	}

	log.Info().Int64("meetup_id", id).Int64("user_id", userID).Msg("service: meetup deleted")
	return nil
}

// ownedUpcoming loads a meetup the user may still edit.
func (s *service) ownedUpcoming(ctx context.Context, userID, id int64) (*Meetup, error) {
	m, err := s.GetMeetup(ctx, id)
	if err != nil {
		return nil, err
	}

	if m.UserID != userID {
		log.Warn().Int64("meetup_id", id).Int64("user_id", userID).Msg("service: user is not the organizer")
		return nil, ErrNotOrganizer
	}

	if m.Past(s.now()) {
		return nil, ErrPastMeetup
	}

	return m, nil
}

func (s *service) checkFile(ctx context.Context, fileID *int64) error {
	if fileID == nil {
		return nil
	}

	if _, err := s.files.GetByID(ctx, *fileID); err != nil {
		if errors.Is(err, file.ErrNotFound) {
			return ErrInvalidFile
		}
		return fmt.Errorf("service: failed to check file: %w", err)
	}
	return nil
}

func (s *service) withFileURLs(meetups []Meetup) []Meetup {
	for i := range meetups {
		s.files.Resolve(meetups[i].File)
	}
	return meetups
}
