package types

import "errors"

// Key construction errors.
var (
	ErrMalformedKey      = errors.New("malformed key")
	ErrInvalidIdentifier = errors.New("identifier must be a positive integer or a non-empty string")
	ErrIncompleteKey     = errors.New("key is incomplete")
	ErrNotSupported      = errors.New("operation not supported")
)

// Model and property errors.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConfig          = errors.New("invalid property configuration")
	ErrDuplicateKind   = errors.New("kind already registered with a different schema")
	ErrUnknownKind     = errors.New("unknown kind")
	ErrUnknownProperty = errors.New("unknown property")
	ErrKindMismatch    = errors.New("entity kind does not match model kind")
)

// Store lifecycle errors.
var (
	ErrNotAttached     = errors.New("store is not attached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrNotFound        = errors.New("entity not found")
)
