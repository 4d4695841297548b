package utils

import "github.com/google/uuid"

// NewID returns a random UUID string used for token ids, request ids and
// catalog events.
func NewID() string {
	return uuid.NewString()
}
