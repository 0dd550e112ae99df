package registry

import "errors"

var (
	// ErrDuplicateResource is returned when registering an id twice.
	ErrDuplicateResource = errors.New("registry: duplicate resource")

	// ErrUnknownResource is returned for operations on an unregistered id.
	ErrUnknownResource = errors.New("registry: unknown resource")

	// ErrInvalidCapacity is returned when registering with capacity <= 0.
	ErrInvalidCapacity = errors.New("registry: capacity must be positive")

	// ErrInvalidID is returned for an empty resource id.
	ErrInvalidID = errors.New("registry: invalid id")

	// ErrNoCapacity is returned by Acquire when no slot is free.
	ErrNoCapacity = errors.New("registry: no free slot")

	// ErrOverRelease is returned by Release when every slot is already free.
	ErrOverRelease = errors.New("registry: release exceeds capacity")
)
