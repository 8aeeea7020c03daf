package service

import (
	"errors"
	"fmt"

	"github.com/LAMpbrien/adventures-of/internal/cache"
	"github.com/LAMpbrien/adventures-of/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrChildNotFound   = errors.New("child not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrInvalidState    = errors.New("book is not in a valid state for this operation")
	ErrRunInProgress   = errors.New("a generation run is already in progress for this book")
	ErrPaymentRequired = errors.New("payment required")
)

// UpstreamError reports a story or illustration provider failure that ended
// a run.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translate maps storage level errors onto service errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrBookNotFound):
		return ErrBookNotFound
	case errors.Is(err, repository.ErrChildNotFound):
		return ErrChildNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return ErrInvalidState
	case errors.Is(err, cache.ErrLeaseHeld):
		return ErrRunInProgress
	}
	return err
}
