package store

import "errors"

// Sentinel errors surfaced by store operations. The service layer maps these
// onto the API error taxonomy.
var (
	ErrBookNotFound = errors.New("book not found")
	ErrBookExists   = errors.New("book already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	// ErrTxnConflict is returned when an optimistic read-modify-write keeps
	// losing against concurrent writers after all retries are exhausted.
	ErrTxnConflict = errors.New("transaction conflict after retries")
)
