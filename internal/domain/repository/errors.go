package repository

import "errors"

// Store error classes. Implementations wrap driver errors with one of these
// so usecases can branch with errors.Is without knowing the database.
var (
	ErrDuplicateKey     = errors.New("store: unique constraint violation")
	ErrForeignKey       = errors.New("store: foreign key violation")
	ErrPermissionDenied = errors.New("store: insufficient privilege")
	ErrStoreUnavailable = errors.New("store: unavailable")
)
