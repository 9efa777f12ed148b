package meetup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/file"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

var (
	ErrNotFound = errors.New("meetup not found")
	// ErrScheduleConflict means a new date would give an attendee two
	// registrations at the same instant.
	ErrScheduleConflict = errors.New("an attendee is already registered to another meetup at this date")
)

type Repository interface {
	Create(ctx context.Context, m *Meetup) (int64, error)
	GetByID(ctx context.Context, id int64) (*Meetup, error)
	ListByDate(ctx context.Context, from, to time.Time, limit, offset int) ([]Meetup, error)
	ListByOrganizer(ctx context.Context, userID int64) ([]Meetup, error)
	Update(ctx context.Context, m *Meetup) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const selectMeetup = `
	SELECT m.id, m.title, m.description, m.location, m.date, m.user_id, m.file_id, m.created_at, m.updated_at,
	       u.id, u.name, u.email, u.created_at, u.updated_at,
	       f.id, f.name, f.path, f.created_at, f.updated_at
	FROM meetups m
	JOIN users u ON u.id = m.user_id
	LEFT JOIN files f ON f.id = m.file_id
`

func (r *postgresRepository) Create(ctx context.Context, m *Meetup) (int64, error) {
	query := `
		INSERT INTO meetups (title, description, location, date, user_id, file_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`

	now := time.Now().UTC()

	var id int64
	err := r.db.QueryRow(ctx, query,
		m.Title,
		m.Description,
		m.Location,
		m.Date,
		m.UserID,
		m.FileID,
		now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert meetup: %w", err)
	}

	m.CreatedAt = now
	m.UpdatedAt = now
	return id, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Meetup, error) {
	m, err := scanMeetup(r.db.QueryRow(ctx, selectMeetup+" WHERE m.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select meetup by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresRepository) ListByDate(ctx context.Context, from, to time.Time, limit, offset int) ([]Meetup, error) {
	query := selectMeetup + `
		WHERE m.date >= $1 AND m.date < $2
		ORDER BY m.date ASC, m.id ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query meetups between %s and %s: %w", from, to, err)
	}
	return collectMeetups(rows)
}

func (r *postgresRepository) ListByOrganizer(ctx context.Context, userID int64) ([]Meetup, error) {
	query := selectMeetup + `
		WHERE m.user_id = $1
		ORDER BY m.date ASC, m.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query meetups for user id %d: %w", userID, err)
	}
	return collectMeetups(rows)
}

// Update writes the editable columns and moves the date copy held by the
// meetup's registrations in the same transaction.
func (r *postgresRepository) Update(ctx context.Context, m *Meetup) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error().Err(rbErr).Int64("meetup_id", m.ID).Msg("Failed to rollback transaction")
		}
	}()

	now := time.Now().UTC()

	cmdTag, err := tx.Exec(ctx, `
		UPDATE meetups
		SET title = $1, description = $2, location = $3, date = $4, file_id = $5, updated_at = $6
		WHERE id = $7
	`, m.Title, m.Description, m.Location, m.Date, m.FileID, now, m.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update meetup %d: %w", m.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE registrations
		SET meetup_date = $1, updated_at = $2
		WHERE meetup_id = $3
	`, m.Date, now, m.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrScheduleConflict
		}
		return fmt.Errorf("repository: failed to move registrations of meetup %d: %w", m.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	m.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, "DELETE FROM meetups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete meetup %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectMeetups(rows pgx.Rows) ([]Meetup, error) {
	defer rows.Close()

	meetups := make([]Meetup, 0)
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan meetup: %w", err)
		}
		meetups = append(meetups, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating meetups: %w", err)
	}
	return meetups, nil
}

func scanMeetup(row pgx.Row) (*Meetup, error) {
	var (
		m         Meetup
		organizer user.User

		fileID        *int64
		fileName      *string
		filePath      *string
		fileCreatedAt *time.Time
		fileUpdatedAt *time.Time
	)

	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Location,
		&m.Date,
		&m.UserID,
		&m.FileID,
		&m.CreatedAt,
		&m.UpdatedAt,
		&organizer.ID,
		&organizer.Name,
		&organizer.Email,
		&organizer.CreatedAt,
		&organizer.UpdatedAt,
		&fileID,
		&fileName,
		&filePath,
		&fileCreatedAt,
		&fileUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Organizer = &organizer
	if fileID != nil {
		m.File = &file.File{
			ID:        *fileID,
			Name:      *fileName,
			Path:      *filePath,
			CreatedAt: *fileCreatedAt,
			UpdatedAt: *fileUpdatedAt,
		}
	}

	return &m, nil
}
