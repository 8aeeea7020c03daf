package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LAMpbrien/adventures-of/internal/models"
)

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

const bookColumns = `
	b.id, b.child_id, b.theme, b.region, b.image_quality, b.illustration_style, b.status,
	b.title, b.character_appearance, b.payment_session_id, b.payment_intent_id,
	b.created_at, b.updated_at, b.completed_at
`

func (r *BookRepository) Create(ctx context.Context, book models.Book) error {
	const query = `
		INSERT INTO books (
			id, child_id, theme, region, image_quality, illustration_style, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		book.ID,
		book.ChildID,
		string(book.Theme),
		string(book.Region),
		string(book.ImageQuality),
		string(book.IllustrationStyle),
		string(book.Status),
	)
	return err
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.id = $1`
	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Book{}, ErrBookNotFound
	}
	return book, err
}

// GetOwned loads a book together with the user id that owns it through its
// child profile.
func (r *BookRepository) GetOwned(ctx context.Context, id string) (models.Book, string, error) {
	query := `SELECT ` + bookColumns + `, c.user_id FROM books b JOIN children c ON c.id = b.child_id WHERE b.id = $1`

	var owner string
	book, err := scanBook(r.pool.QueryRow(ctx, query, id), &owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Book{}, "", ErrBookNotFound
	}
	return book, owner, err
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// UpdateStatus moves the book to status `to` only when its current status is
// one of `from`.
func (r *BookRepository) UpdateStatus(ctx context.Context, id string, to models.BookStatus, from ...models.BookStatus) error {
	const query = `
		UPDATE books
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`
	tag, err := r.pool.Exec(ctx, query, id, string(to), statusStrings(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

// SaveStory stores the story header and inserts the pages in one
// transaction, advancing the status from `from` to `to`. The character
// appearance is only written when the book has none yet.
func (r *BookRepository) SaveStory(ctx context.Context, id, title, appearance string, pages []models.BookPage, to, from models.BookStatus) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const update = `
			UPDATE books
			SET title = $2,
			    character_appearance = COALESCE(character_appearance, $3),
			    status = $4,
			    updated_at = NOW()
			WHERE id = $1 AND status = $5
		`
		tag, err := tx.Exec(ctx, update, id, title, appearance, string(to), string(from))
		if err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStatusConflict
		}

		const insert = `
			INSERT INTO book_pages (id, book_id, page_number, text, image_prompt, is_preview, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`
		batch := &pgx.Batch{}
		for _, p := range pages {
			batch.Queue(insert, p.ID, id, p.PageNumber, p.Text, p.ImagePrompt, p.IsPreview)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert pages: %w", err)
		}
		return nil
	})
}

// MarkPaid records the payment identifiers and moves a preview_ready book
// to paid.
func (r *BookRepository) MarkPaid(ctx context.Context, id string, sessionID, intentID *string) error {
	const query = `
		UPDATE books
		SET status = $2,
		    payment_session_id = COALESCE($3, payment_session_id),
		    payment_intent_id = COALESCE($4, payment_intent_id),
		    updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	tag, err := r.pool.Exec(ctx, query, id, string(models.BookStatusPaid), sessionID, intentID, string(models.BookStatusPreviewReady))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

// Complete moves a paid book to complete and stamps completed_at.
func (r *BookRepository) Complete(ctx context.Context, id string) error {
	const query = `
		UPDATE books
		SET status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
	`
	tag, err := r.pool.Exec(ctx, query, id, string(models.BookStatusComplete), string(models.BookStatusPaid))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

// FailStale fails every book sitting in one of statuses since before
// cutoff and returns their ids.
func (r *BookRepository) FailStale(ctx context.Context, statuses []models.BookStatus, cutoff time.Time) ([]string, error) {
	const query = `
		UPDATE books
		SET status = $1, updated_at = NOW()
		WHERE status = ANY($2) AND updated_at < $3
		RETURNING id
	`
	rows, err := r.pool.Query(ctx, query, string(models.BookStatusFailed), statusStrings(statuses), cutoff)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ListIdle returns the ids of books in status that have not changed since
// before cutoff.
func (r *BookRepository) ListIdle(ctx context.Context, status models.BookStatus, cutoff time.Time) ([]string, error) {
	const query = `
		SELECT id
		FROM books
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
	`
	rows, err := r.pool.Query(ctx, query, string(status), cutoff)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *BookRepository) conflictOrMissing(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrBookNotFound
	}
	return ErrStatusConflict
}

func scanBook(row pgx.Row, extra ...any) (models.Book, error) {
	var (
		book                          models.Book
		theme, region, quality, style string
		status                        string
	)
	dest := []any{
		&book.ID,
		&book.ChildID,
		&theme,
		&region,
		&quality,
		&style,
		&status,
		&book.Title,
		&book.CharacterAppearance,
		&book.PaymentSessionID,
		&book.PaymentIntentID,
		&book.CreatedAt,
		&book.UpdatedAt,
		&book.CompletedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Book{}, err
	}
	book.Theme = models.Theme(theme)
	book.Region = models.Region(region)
	book.ImageQuality = models.ImageQuality(quality)
	book.IllustrationStyle = models.IllustrationStyle(style)
	book.Status = models.BookStatus(status)
	return book, nil
}

func statusStrings(statuses []models.BookStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
