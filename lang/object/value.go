// Package object implements the minimal object and property system that
// the Call/Construct Engine and the environment's Object environments
// need: a tagged Value union, an ordinary Object with a swiss-map-backed
// own-property table and a prototype chain, and the function object
// templates used to turn a compiled CodeBlock into a callable value.
package object

import "fmt"

// Value is any value a script expression may produce: undefined, null, a
// boolean, a number, a string, a symbol, or an object handle. Objects are
// shared handles (*Object); every other kind is copied by value.
type Value interface {
	// Type returns a short string describing the value's type, used in
	// error messages and by typeof.
	Type() string
	// String returns the value's string representation (ToString-ish, but
	// not a full spec coercion; ToStringValue in ops.go, the string
	// conversion the engine uses, returns it unchanged).
	String() string
}

// Undefined is the value of an unassigned binding or a missing property.
type Undefined struct{}

func (Undefined) Type() string   { return "undefined" }
func (Undefined) String() string { return "undefined" }

// Null is the JavaScript null value.
type Null struct{}

func (Null) Type() string   { return "object" }
func (Null) String() string { return "null" }

// Boolean is a JavaScript boolean primitive.
type Boolean bool

func (Boolean) Type() string        { return "boolean" }
func (b Boolean) String() string    { return fmt.Sprintf("%t", bool(b)) }

// Number is a JavaScript number primitive. The engine does not
// distinguish -0 from 0 or NaN payloads beyond what float64 already
// provides.
type Number float64

func (Number) Type() string     { return "number" }
func (n Number) String() string { return fmt.Sprintf("%v", float64(n)) }

// String is a JavaScript string primitive.
type String string

func (String) Type() string     { return "string" }
func (s String) String() string { return string(s) }

// Symbol is a unique, non-string property key, used for well-known
// symbols such as @@unscopables.
type Symbol struct {
	Description string
}

func (*Symbol) Type() string     { return "symbol" }
func (s *Symbol) String() string { return "Symbol(" + s.Description + ")" }

// SymUnscopables is the well-known @@unscopables symbol.
var SymUnscopables = &Symbol{Description: "Symbol.unscopables"}

// ToBoolean applies ECMAScript ToBoolean coercion.
func ToBoolean(v Value) bool {
	switch x := v.(type) {
	case Undefined, Null:
		return false
	case Boolean:
		return bool(x)
	case Number:
		return x != 0 && !isNaN(float64(x))
	case String:
		return x != ""
	default:
		return true // objects, symbols
	}
}

func isNaN(f float64) bool { return f != f }
