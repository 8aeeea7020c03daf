package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LAMpbrien/adventures-of/internal/models"
)

type ChildRepository struct {
	pool *pgxpool.Pool
}

func NewChildRepository(pool *pgxpool.Pool) *ChildRepository {
	return &ChildRepository{pool: pool}
}

func (r *ChildRepository) Create(ctx context.Context, child models.Child) error {
	const query = `
		INSERT INTO children (
			id, user_id, name, age, interests, favorite_things, fears_to_avoid,
			reading_level, photo_urls, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		child.ID,
		child.UserID,
		child.Name,
		child.Age,
		child.Interests,
		child.FavoriteThings,
		child.FearsToAvoid,
		string(child.ReadingLevel),
		child.PhotoURLs,
	)
	return err
}

func (r *ChildRepository) GetByID(ctx context.Context, id string) (models.Child, error) {
	const query = `
		SELECT id, user_id, name, age, interests, favorite_things, fears_to_avoid,
		       reading_level, photo_urls, created_at
		FROM children WHERE id = $1
	`

	var (
		child models.Child
		level string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&child.ID,
		&child.UserID,
		&child.Name,
		&child.Age,
		&child.Interests,
		&child.FavoriteThings,
		&child.FearsToAvoid,
		&level,
		&child.PhotoURLs,
		&child.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Child{}, ErrChildNotFound
		}
		return models.Child{}, err
	}
	child.ReadingLevel = models.ReadingLevel(level)
	return child, nil
}
