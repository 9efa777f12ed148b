package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("file not found")

type Repository interface {
	Create(ctx context.Context, file *File) (int64, error)
	GetByID(ctx context.Context, id int64) (*File, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, file *File) (int64, error) {
	query := `
		INSERT INTO files (name, path, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`

	now := time.Now().UTC()

	var id int64
	if err := r.db.QueryRow(ctx, query, file.Name, file.Path, now).Scan(&id); err != nil {
		return 0, fmt.Errorf("repository: failed to insert file: %w", err)
	}

	file.CreatedAt = now
	file.UpdatedAt = now
	return id, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*File, error) {
	query := `
		SELECT id, name, path, created_at, updated_at
		FROM files
		WHERE id = $1
	`

	var f File
	err := r.db.QueryRow(ctx, query, id).Scan(&f.ID, &f.Name, &f.Path, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select file by id %d: %w", id, err)
	}

	return &f, nil
}
