package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LAMpbrien/adventures-of/internal/models"
)

type PageRepository struct {
	pool *pgxpool.Pool
}

func NewPageRepository(pool *pgxpool.Pool) *PageRepository {
	return &PageRepository{pool: pool}
}

// ListByBook returns the pages of a book ordered by page number.
func (r *PageRepository) ListByBook(ctx context.Context, bookID string) ([]models.BookPage, error) {
	const query = `
		SELECT id, book_id, page_number, text, image_prompt, image_url, is_preview, created_at
		FROM book_pages
		WHERE book_id = $1
		ORDER BY page_number
	`
	rows, err := r.pool.Query(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.BookPage
	for rows.Next() {
		var page models.BookPage
		if err := rows.Scan(
			&page.ID,
			&page.BookID,
			&page.PageNumber,
			&page.Text,
			&page.ImagePrompt,
			&page.ImageURL,
			&page.IsPreview,
			&page.CreatedAt,
		); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func (r *PageRepository) SetImageURL(ctx context.Context, bookID string, pageNumber int, url string) error {
	const query = `
		UPDATE book_pages
		SET image_url = $3
		WHERE book_id = $1 AND page_number = $2
	`
	tag, err := r.pool.Exec(ctx, query, bookID, pageNumber, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPageNotFound
	}
	return nil
}
