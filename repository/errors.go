package repository

import "errors"

// ErrNotFound is returned when a row does not exist or is not visible to the
// requesting owner.
var ErrNotFound = errors.New("record not found")

type scanner interface {
	Scan(dest ...any) error
}
