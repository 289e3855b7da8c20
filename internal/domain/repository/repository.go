package repository

import "errors"

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// ErrInvalidReference is returned when a row points at a record that does not exist.
var ErrInvalidReference = errors.New("referenced record does not exist")
