// Package opvalue implements OperationValue, the tagged union of scalar and
// relation types that can appear in an operation's fields.
package opvalue

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/lw64/graphdoc/hash"
)

var encMode = mustCanonicalEncMode()

func mustCanonicalEncMode() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("opvalue: building canonical CBOR encoder: %v", err))
	}
	return mode
}

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindBoolean holds a bool.
	KindBoolean Kind = iota + 1
	// KindInteger holds a signed 64-bit integer.
	KindInteger
	// KindFloat holds a 64-bit float; NaN is rejected at construction.
	KindFloat
	// KindText holds a UTF-8 string.
	KindText
	// KindRelation holds a Hash pointing at another document.
	KindRelation
)

// wireTag mirrors the original implementation's serde rename per variant:
// "bool", "int", "float", "str", "relation".
func (k Kind) wireTag() string {
	switch k {
	case KindBoolean:
		return "bool"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "str"
	case KindRelation:
		return "relation"
	default:
		return ""
	}
}

func kindFromWireTag(tag string) (Kind, bool) {
	switch tag {
	case "bool":
		return KindBoolean, true
	case "int":
		return KindInteger, true
	case "float":
		return KindFloat, true
	case "str":
		return KindText, true
	case "relation":
		return KindRelation, true
	default:
		return 0, false
	}
}

// Value is an immutable tagged union: exactly one of the typed accessors is
// meaningful, selected by Kind().
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	rel  hash.Hash
}

// Bool constructs a boolean value.
func Bool(v bool) Value { return Value{kind: KindBoolean, b: v} }

// Int constructs an integer value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float constructs a float value. It returns an error (it never panics)
// when v is NaN: NaN cannot round-trip through canonical CBOR
// comparison and has no defined field-ordering semantics.
func Float(v float64) (Value, error) {
	if math.IsNaN(v) {
		return Value{}, fmt.Errorf("%w: float value must not be NaN", ErrInvalidValue)
	}
	return Value{kind: KindFloat, f: v}, nil
}

// Text constructs a text value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Relation constructs a relation value pointing at another document's id.
func Relation(v hash.Hash) Value { return Value{kind: KindRelation, rel: v} }

// Kind reports which variant this value holds. The zero Value has Kind 0,
// which is not a valid Kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was constructed through one of the constructors
// above, as opposed to being a zero Value.
func (v Value) IsValid() bool { return v.kind != 0 }

// AsBool returns the boolean payload and whether Kind() == KindBoolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBoolean }

// AsInt returns the integer payload and whether Kind() == KindInteger.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInteger }

// AsFloat returns the float payload and whether Kind() == KindFloat.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsText returns the text payload and whether Kind() == KindText.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsRelation returns the relation payload and whether Kind() == KindRelation.
func (v Value) AsRelation() (hash.Hash, bool) { return v.rel, v.kind == KindRelation }

// Equal reports deep equality: same Kind and same payload. Floats compare by
// bit pattern, matching canonical-encoding byte-equality rather than IEEE
// equality (so +0 and -0 are distinct, as they are on the wire).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBoolean:
		return v.b == other.b
	case KindInteger:
		return v.i == other.i
	case KindFloat:
		return math.Float64bits(v.f) == math.Float64bits(other.f)
	case KindText:
		return v.s == other.s
	case KindRelation:
		return v.rel.Equal(other.rel)
	default:
		return true
	}
}

// wireValue is the {type, value} shape MarshalCBOR encodes, mirroring the original implementation's
// `#[serde(tag = "type", content = "value")]` representation.
type wireValue struct {
	Type  string      `cbor:"type" json:"type"`
	Value interface{} `cbor:"value" json:"value"`
}

// toWire converts v into its tagged wire representation, which MarshalCBOR
// then encodes.
func (v Value) toWire() (wireValue, error) {
	if !v.IsValid() {
		return wireValue{}, fmt.Errorf("%w: cannot encode zero-value Value", ErrInvalidValue)
	}
	tag := v.kind.wireTag()
	switch v.kind {
	case KindBoolean:
		return wireValue{Type: tag, Value: v.b}, nil
	case KindInteger:
		return wireValue{Type: tag, Value: v.i}, nil
	case KindFloat:
		return wireValue{Type: tag, Value: v.f}, nil
	case KindText:
		return wireValue{Type: tag, Value: v.s}, nil
	case KindRelation:
		return wireValue{Type: tag, Value: v.rel.String()}, nil
	default:
		return wireValue{}, fmt.Errorf("%w: unknown value kind %d", ErrInvalidValue, v.kind)
	}
}

// MarshalCBOR implements cbor.Marshaler so Value encodes as the tagged
// {type, value} map regardless of where it's nested.
func (v Value) MarshalCBOR() ([]byte, error) {
	wire, err := v.toWire()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(wire)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var wire struct {
		Type  string          `cbor:"type"`
		Value cbor.RawMessage `cbor:"value"`
	}
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return err
	}
	return v.fromWire(wire.Type, wire.Value)
}

func (v *Value) fromWire(tag string, raw cbor.RawMessage) error {
	kind, ok := kindFromWireTag(tag)
	if !ok {
		return fmt.Errorf("%w: unknown value type tag %q", ErrInvalidValue, tag)
	}
	switch kind {
	case KindBoolean:
		var b bool
		if err := cbor.Unmarshal(raw, &b); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		*v = Bool(b)
	case KindInteger:
		var i int64
		if err := cbor.Unmarshal(raw, &i); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		*v = Int(i)
	case KindFloat:
		var f float64
		if err := cbor.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		parsed, err := Float(f)
		if err != nil {
			return err
		}
		*v = parsed
	case KindText:
		var s string
		if err := cbor.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		*v = Text(s)
	case KindRelation:
		var s string
		if err := cbor.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		h, err := hash.Parse(s)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		*v = Relation(h)
	}
	return nil
}
