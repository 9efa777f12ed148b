package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("registration not found")

type Repository interface {
	FindByUserAndDate(ctx context.Context, userID int64, date time.Time) (*Registration, error)
	Create(ctx context.Context, reg *Registration) (int64, error)
	ListUpcoming(ctx context.Context, userID int64, now time.Time) ([]Upcoming, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// FindByUserAndDate returns a registration of userID to any meetup taking
// place exactly at date.
func (r *postgresRepository) FindByUserAndDate(ctx context.Context, userID int64, date time.Time) (*Registration, error) {
	query := `
		SELECT r.id, r.user_id, r.meetup_id, m.date, r.created_at, r.updated_at
		FROM registrations r
		JOIN meetups m ON m.id = r.meetup_id
		WHERE r.user_id = $1 AND m.date = $2
		LIMIT 1
	`

	var reg Registration
	err := r.db.QueryRow(ctx, query, userID, date).Scan(
		&reg.ID,
		&reg.UserID,
		&reg.MeetupID,
		&reg.MeetupDate,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select registration for user id %d at %s: %w", userID, date, err)
	}

	return &reg, nil
}

func (r *postgresRepository) Create(ctx context.Context, reg *Registration) (int64, error) {
	query := `
		INSERT INTO registrations (user_id, meetup_id, meetup_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`

	now := time.Now().UTC()

	var id int64
	err := r.db.QueryRow(ctx, query, reg.UserID, reg.MeetupID, reg.MeetupDate, now).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrTimeConflict
		}
		return 0, fmt.Errorf("repository: failed to insert registration: %w", err)
	}

	reg.CreatedAt = now
	reg.UpdatedAt = now
	return id, nil
}

func (r *postgresRepository) ListUpcoming(ctx context.Context, userID int64, now time.Time) ([]Upcoming, error) {
	query := `
		SELECT r.id, m.id, m.title, m.description, m.location, m.date
		FROM registrations r
		JOIN meetups m ON m.id = r.meetup_id
		WHERE r.user_id = $1 AND m.date > $2
		ORDER BY m.date ASC, r.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query registrations for user id %d: %w", userID, err)
	}
	defer rows.Close()

	result := make([]Upcoming, 0)
	for rows.Next() {
		var u Upcoming
		err := rows.Scan(
			&u.ID,
			&u.Meetup.ID,
			&u.Meetup.Title,
			&u.Meetup.Description,
			&u.Meetup.Location,
			&u.Meetup.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan registration for user id %d: %w", userID, err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating registrations for user id %d: %w", userID, err)
	}

	return result, nil
}
