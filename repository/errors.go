package repository

import (
	"errors"

	"example.com/backstage/services/bipagem/eventstore"
)

// Common repository errors
var (
	ErrNotFound               = errors.New("record not found")
	ErrConcurrentModification = eventstore.ErrConcurrentModification
)
