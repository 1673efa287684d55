package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks rejected input: blank required fields, missing files,
	// out-of-range indexes or an operation invalid for the current staging state.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent module, unit, blob or edit session.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks a failed read or write in the database or blob backend.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidCredentials marks a rejected admin login.
	ErrInvalidCredentials = errors.New("invalid admin credentials")

	// ErrIndexOutOfRange is returned by quiz builder operations addressing a missing question.
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrValidation)
)
