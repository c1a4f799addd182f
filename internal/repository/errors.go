package repository

import "errors"

var (
	// ErrNotFound means no row exists for the requested id.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the row exists but belongs to another user.
	ErrForbidden = errors.New("resource owned by another user")
)
