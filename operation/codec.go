package operation

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/lw64/graphdoc/hash"
	"github.com/lw64/graphdoc/opfields"
)

var encMode = mustCanonicalEncMode()

func mustCanonicalEncMode() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("operation: building canonical CBOR encoder: %v", err))
	}
	return mode
}

// wireOperation is the camelCase, canonical on-wire shape described by
// spec §4.2 and §6: optional fields are omitted rather than encoded null.
type wireOperation struct {
	Action             string           `cbor:"action"`
	Schema             string           `cbor:"schema"`
	Version            uint8            `cbor:"version"`
	PreviousOperations []string         `cbor:"previousOperations,omitempty"`
	ID                 string           `cbor:"id,omitempty"`
	Fields             *opfields.Fields `cbor:"fields,omitempty"`
}

// MarshalBinary implements encoding.BinaryMarshaler using canonical CBOR.
func (op Operation) MarshalBinary() ([]byte, error) {
	wire := wireOperation{
		Action:  op.action.String(),
		Schema:  op.schema.String(),
		Version: op.version,
	}
	if wire.Action == "" {
		return nil, fmt.Errorf("%w: unknown action", ErrInvalidOperation)
	}
	if len(op.previousOperations) > 0 {
		wire.PreviousOperations = make([]string, len(op.previousOperations))
		for i, h := range op.previousOperations {
			wire.PreviousOperations[i] = h.String()
		}
	}
	if !op.id.IsZero() {
		wire.ID = op.id.String()
	}
	if op.fields != nil && !op.fields.IsEmpty() {
		wire.Fields = op.fields
	}
	return encMode.Marshal(wire)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The decoded
// Operation is validated exactly as NewCreate/NewUpdate/NewDelete validate,
// so decode(encode(x)) == x holds only for legal operations, and malformed
// wire data is rejected rather than silently accepted.
func (op *Operation) UnmarshalBinary(data []byte) error {
	var wire wireOperation
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOperation, err)
	}

	action, err := actionFromString(wire.Action)
	if err != nil {
		return err
	}

	schema, err := hash.Parse(wire.Schema)
	if err != nil {
		return fmt.Errorf("%w: schema: %v", ErrInvalidOperation, err)
	}

	var previous []hash.Hash
	for _, s := range wire.PreviousOperations {
		h, err := hash.Parse(s)
		if err != nil {
			return fmt.Errorf("%w: previousOperations: %v", ErrInvalidOperation, err)
		}
		previous = append(previous, h)
	}

	var id hash.Hash
	if wire.ID != "" {
		id, err = hash.Parse(wire.ID)
		if err != nil {
			return fmt.Errorf("%w: id: %v", ErrInvalidOperation, err)
		}
	}

	if wire.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidOperation, wire.Version)
	}

	decoded := Operation{
		action:             action,
		schema:             schema,
		version:            wire.Version,
		previousOperations: previous,
		id:                 id,
		fields:             wire.Fields,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*op = decoded
	return nil
}
