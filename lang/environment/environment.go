package environment

import "errors"

// Value is the type of a binding slot's content. The environment package
// treats values opaquely: it never inspects or constructs them. The
// object package supplies the concrete tagged-union Value implementation
// and the Bindable adapter below.
type Value = any

// Bindable is the minimal surface an object must expose to back an Object
// environment (a `with` scope, or the global object). It is satisfied by
// *object.Object without this package importing the object package, which
// would otherwise create an import cycle (function objects capture a
// runtime environment chain).
type Bindable interface {
	// HasProperty reports whether name is an own or inherited property.
	HasProperty(name string) bool
	// GetBindingValue returns the current value of property name. ok is
	// false if the property does not exist.
	GetBindingValue(name string) (Value, bool)
	// SetMutableBinding assigns value to property name, creating it if
	// necessary. strict controls whether a failed assignment to a
	// non-writable property raises an error or is silently ignored.
	SetMutableBinding(name string, value Value, strict bool) error
	// Unscopables returns the object's @@unscopables object, if it has one
	// and that value is itself an object.
	Unscopables() (Bindable, bool)
}

// ThisBindingStatus describes the state of a function environment's
// `this` binding.
type ThisBindingStatus uint8

const (
	// ThisLexical means this environment never binds `this` itself: reads
	// must delegate to the nearest enclosing environment that does (used
	// by arrow functions).
	ThisLexical ThisBindingStatus = iota
	// ThisUninitialized means this is a derived-constructor function
	// environment whose `this` has not yet been bound by a `super()` call.
	ThisUninitialized
	// ThisInitialized means `this` has a value and may be read.
	ThisInitialized
)

// FunctionSlots is the extra state carried by a declarative environment
// that is a function body (or the global environment, in the Global
// variant).
type FunctionSlots struct {
	Global bool // true for the global environment's slots

	ThisValue         Value
	ThisBindingStatus ThisBindingStatus
	FunctionObject    Value
	NewTarget         Value
	HasSuper          bool // true if the function has a [[HomeObject]] (is a method)
}

// BindThisValue sets the `this` binding of a function environment whose
// status is ThisUninitialized (the derived-constructor super() case),
// ported from boa's FunctionSlots::bind_this_value. It returns an error if
// `this` has already been bound, since ECMAScript forbids calling super()
// twice.
func (fs *FunctionSlots) BindThisValue(v Value) error {
	switch fs.ThisBindingStatus {
	case ThisLexical:
		panic("environment: bind_this_value called on a lexical this binding")
	case ThisInitialized:
		return errors.New("ReferenceError: super called twice in derived class constructor")
	default:
		fs.ThisValue = v
		fs.ThisBindingStatus = ThisInitialized
		return nil
	}
}

// GetThisBinding returns the current `this` value, or an error if it has
// not been initialized yet (derived-constructor TDZ on `this`), using the
// exact message boa's runtime.rs uses for this condition.
func (fs *FunctionSlots) GetThisBinding() (Value, error) {
	switch fs.ThisBindingStatus {
	case ThisUninitialized:
		return nil, errors.New("ReferenceError: must call super constructor in derived class " +
			"before accessing 'this' or returning from derived constructor")
	case ThisLexical:
		panic("environment: get_this_binding called on a lexical this binding")
	default:
		return fs.ThisValue, nil
	}
}

// HasSuperBinding reports whether this function environment has a
// [[HomeObject]] binding, i.e. is a method body.
func (fs *FunctionSlots) HasSuperBinding() bool {
	return !fs.Global && fs.HasSuper && fs.ThisBindingStatus != ThisLexical
}

// slot is one binding cell of a declarative environment. present
// distinguishes an absent (temporal-dead-zone) slot from one holding the
// value `undefined`, per invariant 3.
type slot struct {
	value   Value
	present bool
}

// Kind distinguishes the environment variants.
type Kind uint8

const (
	// Declarative is a binding table keyed by compile-assigned indices.
	Declarative Kind = iota
	// Object is an environment backed by an object (a `with` scope or the
	// global object).
	Object
)

// Environment is one entry of the EnvironmentStack: either a declarative
// environment (an ordered vector of binding slots) or an object
// environment (bindings delegate to an object's properties).
type Environment struct {
	kind Kind

	// Declarative fields.
	slots      []slot
	compileEnv *CompileTimeEnvironment
	poisoned   bool
	with       bool
	funcSlots  *FunctionSlots // nil unless this environment is a function body or the global

	// Object fields.
	obj Bindable
}

// Kind returns whether this is a Declarative or Object environment.
func (e *Environment) Kind() Kind { return e.kind }

// CompileEnvironment returns the compile-time environment this
// (declarative) runtime environment mirrors.
func (e *Environment) CompileEnvironment() *CompileTimeEnvironment { return e.compileEnv }

// Poisoned reports whether this declarative environment may contain
// bindings that are not known at compile time.
func (e *Environment) Poisoned() bool { return e.poisoned }

// With reports whether this declarative environment sits, directly or
// transitively, beneath an object (`with`) environment and so may be
// shadowed by one at resolution time.
func (e *Environment) With() bool { return e.with }

// Slots returns the function slots of this environment, or nil if it is
// not a function or global environment.
func (e *Environment) Slots() *FunctionSlots { return e.funcSlots }

// Object returns the bound object of an Object environment. It panics if
// called on a Declarative environment.
func (e *Environment) Object() Bindable {
	if e.kind != Object {
		panic("environment: Object() called on a declarative environment")
	}
	return e.obj
}

func (e *Environment) numSlots() int { return len(e.slots) }

func (e *Environment) get(i int) (Value, bool) {
	if i < 0 || i >= len(e.slots) {
		panic("environment: binding index out of range")
	}
	s := e.slots[i]
	return s.value, s.present
}

func (e *Environment) put(i int, v Value) {
	if i < 0 || i >= len(e.slots) {
		panic("environment: binding index out of range")
	}
	e.slots[i] = slot{value: v, present: true}
}

func (e *Environment) putIfAbsent(i int, v Value) {
	if i < 0 || i >= len(e.slots) {
		panic("environment: binding index out of range")
	}
	if !e.slots[i].present {
		e.slots[i] = slot{value: v, present: true}
	}
}

func (e *Environment) extend(newLen int) {
	for len(e.slots) < newLen {
		e.slots = append(e.slots, slot{})
	}
}
