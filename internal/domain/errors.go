package domain

import "errors"

// A relay target that vanished is not an error at all: that race is absorbed
// silently by the engine.
var (
	// ErrDuplicateIdentity rejects a registration whose userId is already
	// taken by another connection.
	ErrDuplicateIdentity = errors.New("user id already registered")

	// ErrAlreadyRegistered rejects a second registration on a connection
	// that already holds a registry entry. Interests are immutable after
	// registration, so there is nothing a re-register could legally do.
	ErrAlreadyRegistered = errors.New("connection already registered")
)
