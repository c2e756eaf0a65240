// Package schema implements the CDDL schema generator: a pure
// string-construction emitter describing the shape of an operation's field
// map, consumed by an external CBOR-schema checker (spec §4.6).
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lw64/graphdoc/opvalue"
)

// FieldType names the CDDL-visible type of a field, mirroring the wire
// tags used by opvalue.Value ("bool", "int", "float", "str", "relation").
type FieldType string

const (
	TypeBool     FieldType = "bool"
	TypeInt      FieldType = "int"
	TypeFloat    FieldType = "float"
	TypeStr      FieldType = "str"
	TypeRelation FieldType = "relation"
)

// cddlType returns the CDDL primitive for t. Relation expands to a regex
// constraint over the 68-hex-character hash representation.
func (t FieldType) cddlType() (string, error) {
	switch t {
	case TypeBool:
		return "bool", nil
	case TypeInt:
		return "int", nil
	case TypeFloat:
		return "float", nil
	case TypeStr:
		return "tstr", nil
	case TypeRelation:
		return `tstr .regexp "[0-9a-f]{68}"`, nil
	default:
		return "", fmt.Errorf("%w: unknown field type %q", ErrUnknownFieldType, t)
	}
}

// KindToFieldType maps an opvalue.Kind to its CDDL FieldType, for callers
// building a Generator directly from a set of OperationValues.
func KindToFieldType(k opvalue.Kind) (FieldType, error) {
	switch k {
	case opvalue.KindBoolean:
		return TypeBool, nil
	case opvalue.KindInteger:
		return TypeInt, nil
	case opvalue.KindFloat:
		return TypeFloat, nil
	case opvalue.KindText:
		return TypeStr, nil
	case opvalue.KindRelation:
		return TypeRelation, nil
	default:
		return "", fmt.Errorf("%w: unknown value kind %d", ErrUnknownFieldType, k)
	}
}

// Generator accumulates named, typed fields and emits the CDDL grammar
// fragment for them in sorted key order.
type Generator struct {
	name   string
	fields map[string]FieldType
}

// NewGenerator returns a Generator for a record named name (e.g. a schema
// or operation name).
func NewGenerator(name string) *Generator {
	return &Generator{name: name, fields: make(map[string]FieldType)}
}

// AddField records a named field's type. It overwrites any prior type
// recorded for the same name.
func (g *Generator) AddField(name string, fieldType FieldType) {
	g.fields[name] = fieldType
}

// String renders the CDDL grammar fragment:
//
//	<name> = { <fkey>: { ( type: "<ftype>", value: <cddl-type> ) }, ... }
//
// Fields are emitted in sorted key order; the comma separator is emitted
// before every element except the first.
func (g *Generator) String() string {
	keys := make([]string, 0, len(g.fields))
	for k := range g.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(g.name)
	b.WriteString(" = { ")
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		ftype := g.fields[key]
		cddl, err := ftype.cddlType()
		if err != nil {
			// Generation is pure string construction over types already
			// validated by AddField's caller; an unknown type here means
			// the caller bypassed KindToFieldType/the FieldType constants.
			cddl = "unknown"
		}
		fmt.Fprintf(&b, "%s: { ( type: \"%s\", value: %s ) }", key, ftype, cddl)
	}
	b.WriteString(" }")
	return b.String()
}
