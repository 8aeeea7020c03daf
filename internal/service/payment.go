package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/LAMpbrien/adventures-of/internal/ids"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/queue"
)

// Checkout unlocks a preview when payment bypass is enabled. Real checkout
// sessions are created by the payment provider.
func (s *BookService) Checkout(ctx context.Context, userID, bookID string) (models.BookStatus, error) {
	book, err := s.authorize(ctx, userID, bookID)
	if err != nil {
		return "", err
	}
	if !s.opts.PaymentBypass {
		return "", ErrPaymentRequired
	}
	if err := s.books.MarkPaid(ctx, book.ID, nil, nil); err != nil {
		return "", translate(err)
	}
	if err := s.submitFull(ctx, book.ID); err != nil {
		return "", err
	}
	return models.BookStatusPaid, nil
}

type PaymentConfirmation struct {
	BookID    string
	SessionID *string
	IntentID  *string
}

// ConfirmPayment records a completed payment and queues the full batch.
// A replay for a book still in paid queues the batch again, since the first
// submit may have failed after the payment was stored; the run lease keeps
// duplicates from overlapping. A replay for a complete book is a no-op.
func (s *BookService) ConfirmPayment(ctx context.Context, in PaymentConfirmation) error {
	if !ids.Valid(in.BookID) {
		return invalid("book_id must be a uuid")
	}

	err := s.books.MarkPaid(ctx, in.BookID, in.SessionID, in.IntentID)
	if err != nil {
		err = translate(err)
		if !errors.Is(err, ErrInvalidState) {
			return err
		}
		book, getErr := s.books.GetByID(ctx, in.BookID)
		if getErr != nil {
			return translate(getErr)
		}
		switch book.Status {
		case models.BookStatusPaid:
			s.log.Info().Str("book_id", in.BookID).Msg("payment already recorded, queueing full batch again")
			return s.submitFull(ctx, in.BookID)
		case models.BookStatusComplete:
			s.log.Info().Str("book_id", in.BookID).Msg("payment already recorded")
			return nil
		}
		return err
	}

	s.log.Info().Str("book_id", in.BookID).Msg("payment confirmed")
	return s.submitFull(ctx, in.BookID)
}

func (s *BookService) submitFull(ctx context.Context, bookID string) error {
	task := queue.Task{Type: queue.TaskGenerateImages, BookID: bookID, Mode: models.ModeFull}
	if err := s.dispatcher.Submit(ctx, task); err != nil {
		return fmt.Errorf("submit full generation: %w", err)
	}
	return nil
}
