package storage

import "errors"

// ErrInvalidInput is returned when a record is missing the fields that key it.
var ErrInvalidInput = errors.New("invalid input")
