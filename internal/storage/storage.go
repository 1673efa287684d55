// Package storage provides blob backends addressed by opaque object ids.
package storage

import (
	"errors"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when the requested object does not exist in the backend
var ErrObjectNotFound = errors.New("object not found")

// NewObjectID generates a new opaque object id.
// Ids are never derived from content, so identical uploads get distinct ids.
func NewObjectID() string {
	return uuid.New().String()
}
