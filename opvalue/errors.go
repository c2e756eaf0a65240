package opvalue

import "errors"

// ErrInvalidValue is returned when a Value cannot be constructed or decoded:
// a NaN float, an unknown wire type tag, or a malformed relation hash.
var ErrInvalidValue = errors.New("invalid operation value")
