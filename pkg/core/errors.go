package core

import "errors"

var (
	// ErrTypeNotFound is returned when a root type cannot be resolved.
	ErrTypeNotFound = errors.New("type not found")
	// ErrMemberNotFound is returned when a root member cannot be resolved.
	ErrMemberNotFound = errors.New("member not found")
	// ErrPartialLoad marks a module that loaded with some types missing.
	// The module returned alongside it is still usable.
	ErrPartialLoad = errors.New("module partially loaded")
)
