package repository

import "errors"

var (
	ErrChildNotFound = errors.New("child not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrPageNotFound  = errors.New("page not found")

	// ErrStatusConflict is returned by conditional status updates when the
	// book exists but is not in one of the expected statuses.
	ErrStatusConflict = errors.New("book status changed concurrently")
)
