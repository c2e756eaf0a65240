// Package document implements DocumentView, DocumentBuilder and Document:
// the CRDT materialisation core that folds a sorted operation sequence
// into a single immutable view.
package document

import (
	"github.com/lw64/graphdoc/operation"
	"github.com/lw64/graphdoc/opvalue"
)

// View is a name -> value snapshot of a document's current fields.
// Constructed from a CREATE operation via TryFromCreate, then folded
// forward with ApplyUpdate for each subsequent UPDATE in sort order.
type View struct {
	values map[string]opvalue.Value
}

// TryFromCreate initialises a view from a CREATE operation's field set.
func TryFromCreate(create operation.Operation) (*View, error) {
	if !create.IsCreate() {
		return nil, ErrNoCreateOperation
	}
	v := &View{values: make(map[string]opvalue.Value)}
	create.Fields().Iter(func(name string, value opvalue.Value) bool {
		v.values[name] = value
		return true
	})
	return v, nil
}

// ApplyUpdate overlays an UPDATE operation's fields onto the view at field
// granularity: only the fields the update mentions change, so earlier
// unrelated fields survive (spec §9, "last-write-wins granularity").
func (v *View) ApplyUpdate(update operation.Operation) {
	if !update.IsUpdate() {
		return
	}
	update.Fields().Iter(func(name string, value opvalue.Value) bool {
		v.values[name] = value
		return true
	})
}

// Get returns the value stored for name, if present.
func (v *View) Get(name string) (opvalue.Value, bool) {
	val, ok := v.values[name]
	return val, ok
}

// clone returns a copy of the view with its own map: Value is already
// immutable, so only the map needs copying.
func (v *View) clone() *View {
	out := &View{values: make(map[string]opvalue.Value, len(v.values))}
	for k, val := range v.values {
		out.values[k] = val
	}
	return out
}
