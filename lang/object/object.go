package object

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/mna/esvm/lang/environment"
)

// Object is an ordinary JavaScript object: a swiss-map-backed own-property
// table (mirroring the teacher's dolthub/swiss-backed Map in
// lang/machine/map.go) plus a prototype link. Class instances, function
// objects, and `with` targets are all *Object values, possibly carrying
// additional state (see Callable in function.go).
type Object struct {
	props      *swiss.Map[string, Property]
	symbols    map[*Symbol]Property
	prototype  *Object
	extensible bool

	// Call/Construct is non-nil for callable objects (ordinary functions,
	// native functions, classes). It is set by the function-object
	// templates in function.go rather than by callers constructing Object
	// directly.
	Callable Callable
}

var (
	_ Value               = (*Object)(nil)
	_ environment.Bindable = (*Object)(nil)
)

// New returns an empty, extensible object with the given prototype (nil
// for none).
func New(prototype *Object) *Object {
	return &Object{
		props:      swiss.NewMap[string, Property](8),
		prototype:  prototype,
		extensible: true,
	}
}

func (o *Object) Type() string   { return "object" }
func (o *Object) String() string { return fmt.Sprintf("[object %p]", o) }

// Prototype returns the object's prototype, or nil.
func (o *Object) Prototype() *Object { return o.prototype }

// SetPrototype performs a prototype transition, used by the Construct
// Engine's slow path (§4.3) when a callee supplies a custom prototype.
func (o *Object) SetPrototype(p *Object) { o.prototype = p }

// DefineOwnProperty installs prop under name, creating or replacing the
// own property regardless of its previous configurable attribute (the
// engine-internal definition operation used by object construction; the
// script-visible [[DefineOwnProperty]] rejection of non-configurable
// redefinition is enforced by SetOwnProperty, not here).
func (o *Object) DefineOwnProperty(name string, prop Property) {
	o.props.Put(name, prop)
}

// DefineOwnSymbolProperty installs prop under the symbol key sym.
func (o *Object) DefineOwnSymbolProperty(sym *Symbol, prop Property) {
	if o.symbols == nil {
		o.symbols = make(map[*Symbol]Property)
	}
	o.symbols[sym] = prop
}

// GetOwnProperty returns the own property named name, if any.
func (o *Object) GetOwnProperty(name string) (Property, bool) {
	return o.props.Get(name)
}

// GetOwnSymbolProperty returns the own property keyed by sym, if any.
func (o *Object) GetOwnSymbolProperty(sym *Symbol) (Property, bool) {
	if o.symbols == nil {
		return Property{}, false
	}
	p, ok := o.symbols[sym]
	return p, ok
}

// HasProperty reports whether name is an own or inherited property,
// walking the prototype chain.
func (o *Object) HasProperty(name string) bool {
	for cur := o; cur != nil; cur = cur.prototype {
		if _, ok := cur.props.Get(name); ok {
			return true
		}
	}
	return false
}

// Get returns the value of property name, walking the prototype chain; ok
// is false if no such property exists anywhere on the chain.
func (o *Object) Get(name string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.prototype {
		if p, ok := cur.props.Get(name); ok {
			return p.Value, true
		}
	}
	return nil, false
}

// GetBindingValue implements environment.Bindable.
func (o *Object) GetBindingValue(name string) (environment.Value, bool) {
	v, ok := o.Get(name)
	return v, ok
}

// SetOwnProperty assigns value to an existing own property, or creates a
// new writable/enumerable/configurable one if none exists on the object
// itself. It returns an error if the own property exists and is not
// writable (strict mode callers should propagate it; sloppy callers may
// ignore it per SetMutableBinding's strict flag).
func (o *Object) SetOwnProperty(name string, value Value) error {
	if p, ok := o.props.Get(name); ok {
		if !p.Writable {
			return fmt.Errorf("TypeError: Cannot assign to read only property %q of object", name)
		}
		p.Value = value
		o.props.Put(name, p)
		return nil
	}
	o.props.Put(name, DataProperty(value))
	return nil
}

// SetMutableBinding implements environment.Bindable.
func (o *Object) SetMutableBinding(name string, value environment.Value, strict bool) error {
	v, _ := value.(Value)
	err := o.SetOwnProperty(name, v)
	if err != nil && !strict {
		return nil
	}
	return err
}

// Unscopables implements environment.Bindable by reading the object's
// @@unscopables own property, if it is itself an object.
func (o *Object) Unscopables() (environment.Bindable, bool) {
	p, ok := o.GetOwnSymbolProperty(SymUnscopables)
	if !ok {
		return nil, false
	}
	obj, ok := p.Value.(*Object)
	if !ok {
		return nil, false
	}
	return obj, true
}

// OwnPropertyNames returns the enumerable own property names, in
// unspecified order (the swiss map does not preserve insertion order).
// Used for for-in iteration and Object.keys-style operations.
func (o *Object) OwnPropertyNames() []string {
	var names []string
	o.props.Iter(func(k string, p Property) bool {
		if p.Enumerable {
			names = append(names, k)
		}
		return false
	})
	return names
}
