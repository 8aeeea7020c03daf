package ids

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// New returns a random UUID used as a row id.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a canonical UUID.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Token returns a time-sortable unique token, used for run leases and
// staged render keys.
func Token() string {
	return ksuid.New().String()
}
