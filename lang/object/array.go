package object

import "strconv"

// NewArray builds an array-like object: numeric-string-keyed own
// properties 0..len(elems)-1 plus a length property, backed by the same
// property table as any other object. This core does not model the
// exotic Array behavior of length auto-tracking on arbitrary index
// writes past the end (see DESIGN.md); GETINDEX/SETINDEX on an array
// value go through the same coerced-string-key path as any other
// property access.
func NewArray(proto *Object, elems []Value) *Object {
	arr := New(proto)
	for i, v := range elems {
		arr.DefineOwnProperty(strconv.Itoa(i), DataProperty(v))
	}
	arr.DefineOwnProperty("length", DataProperty(Number(len(elems))))
	return arr
}
