package document

import (
	"errors"
	"fmt"

	"github.com/lw64/graphdoc/hash"
)

// ErrNoCreateOperation is returned when a builder's input set contains no
// CREATE operation.
var ErrNoCreateOperation = errors.New("no create operation")

// ErrMoreThanOneCreateOperation is returned when a builder's input set
// contains more than one CREATE operation.
var ErrMoreThanOneCreateOperation = errors.New("more than one create operation")

// ErrOperationSchemaNotMatching is returned when an operation's schema
// does not match the document's schema (the CREATE's schema).
var ErrOperationSchemaNotMatching = errors.New("operation schema does not match document schema")

// ErrInvalidOperationLinkSentinel is the sentinel matched by errors.Is
// against an InvalidOperationLinkError; use errors.As to recover the
// offending operation id.
var ErrInvalidOperationLinkSentinel = errors.New("invalid operation link")

// InvalidOperationLinkError wraps ErrInvalidOperationLinkSentinel with the
// id of the operation whose previous_operations referenced a hash absent
// from the input set.
type InvalidOperationLinkError struct {
	OperationID hash.Hash
}

func (e *InvalidOperationLinkError) Error() string {
	return fmt.Sprintf("%s: operation %s references a previous operation outside the input set",
		ErrInvalidOperationLinkSentinel, e.OperationID)
}

func (e *InvalidOperationLinkError) Unwrap() error {
	return ErrInvalidOperationLinkSentinel
}

func invalidOperationLink(id hash.Hash) error {
	return &InvalidOperationLinkError{OperationID: id}
}
