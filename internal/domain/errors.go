package domain

import "errors"

var (
	// ErrInvalidCredential is returned when a password matches no configured group.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrDuplicateAttempt is returned when an attempt result already exists
	// for a (participant, group) pair.
	ErrDuplicateAttempt = errors.New("duplicate attempt")
	// ErrValidation wraps malformed input: bad grade ranges, missing CSV
	// columns, non-numeric marks.
	ErrValidation = errors.New("validation failed")
	// ErrStorageUnavailable wraps storage-layer failures on critical paths.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotFound indicates a referenced group, question or result is missing.
	ErrNotFound = errors.New("not found")
	// ErrSessionFinished is returned when a mutation is attempted on a
	// finished session.
	ErrSessionFinished = errors.New("session already finished")
	// ErrNoSession is returned when an operation requires an active session.
	ErrNoSession = errors.New("no active session")
)
