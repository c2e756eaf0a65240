package schema

import "errors"

// ErrUnknownFieldType is returned when a FieldType or opvalue.Kind has no
// known CDDL representation.
var ErrUnknownFieldType = errors.New("unknown field type")
