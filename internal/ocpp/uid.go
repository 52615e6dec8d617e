package ocpp

import "github.com/google/uuid"

// UIDGenerator produces correlation ids for outgoing calls.
type UIDGenerator func() string

// NewUID returns a random (version 4) UUID string.
func NewUID() string {
	return uuid.NewString()
}
