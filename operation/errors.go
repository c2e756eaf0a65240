package operation

import "errors"

// ErrInvalidOperation is the general sentinel wrapped by all validation
// failures in this package; match specific causes with errors.Is against
// the narrower sentinels below.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrEmptyFields is returned when a CREATE or UPDATE operation carries no
// fields.
var ErrEmptyFields = errors.New("operation must have fields")

// ErrEmptyPreviousOperations is returned when an UPDATE or DELETE operation
// has no previous_operations.
var ErrEmptyPreviousOperations = errors.New("operation must have previous_operations")

// ErrExistingPreviousOperations is returned when a CREATE operation carries
// previous_operations.
var ErrExistingPreviousOperations = errors.New("create operation must not have previous_operations")
