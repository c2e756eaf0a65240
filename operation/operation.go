// Package operation implements Operation, the atomic CREATE/UPDATE/DELETE
// mutation record, its validation invariants, and its canonical binary
// codec.
package operation

import (
	"fmt"

	"github.com/lw64/graphdoc/hash"
	"github.com/lw64/graphdoc/invariant"
	"github.com/lw64/graphdoc/opfields"
)

// Version is the only currently-defined operation format version.
const Version uint8 = 1

// Operation is a record of one CREATE, UPDATE or DELETE mutation. Zero
// values are never valid; construct one with NewCreate, NewUpdate or
// NewDelete, which validate the three invariants from the data model before
// returning.
type Operation struct {
	action             Action
	schema             hash.Hash
	version            uint8
	previousOperations []hash.Hash
	id                 hash.Hash
	fields             *opfields.Fields
}

// NewCreate builds and validates a CREATE operation: it must carry
// non-empty fields and must not carry previous_operations or an id.
func NewCreate(schema hash.Hash, fields *opfields.Fields) (Operation, error) {
	op := Operation{
		action:  ActionCreate,
		schema:  schema,
		version: Version,
		fields:  fields,
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// NewUpdate builds and validates an UPDATE operation: it must carry
// non-empty fields, a non-empty previous_operations set, and an id (the
// target document id).
func NewUpdate(schema hash.Hash, id hash.Hash, previous []hash.Hash, fields *opfields.Fields) (Operation, error) {
	op := Operation{
		action:             ActionUpdate,
		schema:             schema,
		version:            Version,
		id:                 id,
		previousOperations: append([]hash.Hash(nil), previous...),
		fields:             fields,
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// NewDelete builds and validates a DELETE operation: it must carry no
// fields, a non-empty previous_operations set, and an id.
func NewDelete(schema hash.Hash, id hash.Hash, previous []hash.Hash) (Operation, error) {
	op := Operation{
		action:             ActionDelete,
		schema:             schema,
		version:            Version,
		id:                 id,
		previousOperations: append([]hash.Hash(nil), previous...),
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// Action reports the operation's action.
func (op Operation) Action() Action { return op.action }

// Schema reports the schema hash every operation in a document must share.
func (op Operation) Schema() hash.Hash { return op.schema }

// Version reports the operation format version.
func (op Operation) Version() uint8 { return op.version }

// PreviousOperations reports the operation ids this operation causally
// follows. Empty for CREATE.
func (op Operation) PreviousOperations() []hash.Hash {
	return append([]hash.Hash(nil), op.previousOperations...)
}

// ID reports the target document id for UPDATE/DELETE. Zero value for
// CREATE (CREATE defines the document id; it does not reference one).
func (op Operation) ID() hash.Hash { return op.id }

// Fields reports the field map for CREATE/UPDATE. Nil for DELETE.
func (op Operation) Fields() *opfields.Fields { return op.fields }

// IsCreate, IsUpdate and IsDelete report the operation's action.
func (op Operation) IsCreate() bool { return op.action == ActionCreate }
func (op Operation) IsUpdate() bool { return op.action == ActionUpdate }
func (op Operation) IsDelete() bool { return op.action == ActionDelete }

// Validate checks the three invariants from the data model:
//
//  1. Create ⇒ has fields (non-empty) ∧ no previous_operations ∧ no id.
//  2. Update ⇒ has fields (non-empty) ∧ has previous_operations ∧ has id.
//  3. Delete ⇒ no fields ∧ has previous_operations ∧ has id.
//
// Error precedence follows the original implementation: empty-fields is
// checked before empty-previous-operations, which is checked before
// existing-previous-operations-on-create.
func (op Operation) Validate() error {
	hasFields := op.fields != nil && !op.fields.IsEmpty()
	hasPrevious := len(op.previousOperations) > 0

	if !op.IsDelete() && !hasFields {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, ErrEmptyFields)
	}
	if op.IsDelete() && op.fields != nil && !op.fields.IsEmpty() {
		return fmt.Errorf("%w: delete operation must not have fields", ErrInvalidOperation)
	}
	if !op.IsCreate() && !hasPrevious {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, ErrEmptyPreviousOperations)
	}
	if op.IsCreate() && hasPrevious {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, ErrExistingPreviousOperations)
	}
	if !op.IsCreate() && op.id.IsZero() {
		return fmt.Errorf("%w: update/delete operation must have an id", ErrInvalidOperation)
	}
	if op.IsCreate() && !op.id.IsZero() {
		return fmt.Errorf("%w: create operation must not have an id", ErrInvalidOperation)
	}

	invariant.Invariant(op.version == Version, "unexpected operation version %d", op.version)
	return nil
}
