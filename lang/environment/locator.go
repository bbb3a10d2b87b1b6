package environment

import "fmt"

// LocatorKind distinguishes the BindingLocator variants.
type LocatorKind uint8

const (
	// LocDeclarative addresses a concrete (environmentIndex, bindingIndex)
	// pair.
	LocDeclarative LocatorKind = iota
	// LocGlobal addresses a name resolved against the global object at
	// runtime.
	LocGlobal
	// LocMutateImmutable is a sentinel that always raises on write (a
	// reference to a const binding, or to an undeclared strict-mode name).
	LocMutateImmutable
	// LocSilent is a sentinel that discards writes (used for some
	// early-binding edge cases where a write must be a silent no-op).
	LocSilent
	// LocObject addresses a name resolved against a `with` object
	// environment found at runtime.
	LocObject
)

// Locator is a compact record produced at compile time that addresses a
// single variable binding. find_runtime_binding may retarget it (never
// mutating the compiler's original locator; callers work on a copy) to
// follow eval-introduced shadowing or with-chain indirection.
type Locator struct {
	Kind LocatorKind

	Name string // always set; used for Global/Object/diagnostics

	EnvironmentIndex int // valid when Kind == LocDeclarative
	BindingIndex     int // valid when Kind == LocDeclarative

	// ObjectEnvIndex is the environment stack index of the object
	// environment that resolved this binding, valid when Kind == LocObject.
	ObjectEnvIndex int
}

// NewDeclarativeLocator builds a compile-time locator for a binding known
// to live at (envIndex, bindingIndex).
func NewDeclarativeLocator(name string, envIndex, bindingIndex int) Locator {
	return Locator{Kind: LocDeclarative, Name: name, EnvironmentIndex: envIndex, BindingIndex: bindingIndex}
}

// NewGlobalLocator builds a compile-time locator for a name with no
// compile-time binding, resolved against the global object at runtime.
func NewGlobalLocator(name string) Locator {
	return Locator{Kind: LocGlobal, Name: name}
}

// NewMutateImmutableLocator builds a locator that always raises on write,
// used for references to const bindings and (in strict mode) to
// undeclared names.
func NewMutateImmutableLocator(name string) Locator {
	return Locator{Kind: LocMutateImmutable, Name: name}
}

// NewSilentLocator builds a locator whose writes are silently discarded.
func NewSilentLocator(name string) Locator {
	return Locator{Kind: LocSilent, Name: name}
}

// ThrowIfImmutable returns an error if loc addresses an immutable binding,
// ported from boa's BindingLocator::throw_mutate_immutable. Write opcodes
// call this before ever touching the environment stack.
func (loc Locator) ThrowIfImmutable() error {
	if loc.Kind == LocMutateImmutable {
		return fmt.Errorf("TypeError: Assignment to constant variable %q", loc.Name)
	}
	return nil
}

// FindRuntimeBinding resolves loc against the current state of stack,
// implementing the §4.2 algorithm: a fast path when the top environment
// is an unpoisoned, non-with declarative environment (the locator is
// trusted unchanged), else a walk from loc.EnvironmentIndex up to the top
// of the stack, innermost environments winning.
func FindRuntimeBinding(stack *Stack, loc Locator) Locator {
	if loc.Kind != LocDeclarative && loc.Kind != LocGlobal {
		return loc
	}

	top := stack.Current()
	if top.kind == Declarative && !top.poisoned && !top.with {
		return loc
	}

	startIndex := loc.EnvironmentIndex
	if loc.Kind == LocGlobal {
		startIndex = 0
	}

	for i := stack.Len() - 1; i >= startIndex; i-- {
		env := stack.At(i)
		switch env.kind {
		case Declarative:
			if env.poisoned && env.funcSlots != nil {
				if idx := env.compileEnv.IndexOf(loc.Name); idx >= 0 {
					return Locator{Kind: LocDeclarative, Name: loc.Name, EnvironmentIndex: i, BindingIndex: idx}
				}
				continue
			}
			if !env.poisoned && !env.with {
				return loc
			}
			// poisoned-but-not-function, or with: keep walking inward toward
			// startIndex (an innermost with/poisoned layer wins first).
		case Object:
			if _, ok := lookupObjectEnv(env.obj, loc.Name); ok {
				return Locator{Kind: LocObject, Name: loc.Name, ObjectEnvIndex: i}
			}
		}
	}

	if loc.Kind == LocGlobal {
		return loc
	}
	return NewGlobalLocator(loc.Name)
}

// lookupObjectEnv implements the §4.2 @@unscopables check: a name is
// considered present on an object environment only if the object has the
// property and the property is not excluded by a truthy entry in the
// object's @@unscopables object.
func lookupObjectEnv(obj Bindable, name string) (Value, bool) {
	if !obj.HasProperty(name) {
		return nil, false
	}
	if unscopables, ok := obj.Unscopables(); ok {
		if v, present := unscopables.GetBindingValue(name); present {
			if truthy(v) {
				return nil, false
			}
		}
	}
	return obj.GetBindingValue(name)
}

// truthy applies ECMAScript ToBoolean to an arbitrary Value as stored in
// an @@unscopables entry. The environment package does not own the full
// Value union, so it recognizes the handful of falsy shapes it can see
// (nil, false, "", 0) and otherwise treats the value as truthy, matching
// the coercion used by find_runtime_binding for this specific check.
func truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}

// Read resolves loc (already run through FindRuntimeBinding) to a value.
// present is false if the binding is declared but its slot is absent
// (temporal dead zone): callers should raise ReferenceError in that case.
func Read(stack *Stack, loc Locator, global Bindable) (value Value, present bool, err error) {
	switch loc.Kind {
	case LocDeclarative:
		v, ok := stack.GetDeclarativeValue(loc.EnvironmentIndex, loc.BindingIndex)
		return v, ok, nil
	case LocObject:
		v, ok := stack.At(loc.ObjectEnvIndex).Object().GetBindingValue(loc.Name)
		return v, ok, nil
	case LocGlobal:
		v, ok := global.GetBindingValue(loc.Name)
		if !ok {
			return nil, false, fmt.Errorf("ReferenceError: %s is not defined", loc.Name)
		}
		return v, true, nil
	case LocSilent:
		return nil, true, nil
	default:
		return nil, false, fmt.Errorf("TypeError: Assignment to constant variable %q", loc.Name)
	}
}

// Write resolves loc (already run through FindRuntimeBinding) and stores
// value. strict controls whether a write to a non-writable global
// property raises or is ignored.
func Write(stack *Stack, loc Locator, value Value, strict bool, global Bindable) error {
	switch loc.Kind {
	case LocDeclarative:
		stack.PutDeclarativeValue(loc.EnvironmentIndex, loc.BindingIndex, value)
		return nil
	case LocObject:
		return stack.At(loc.ObjectEnvIndex).Object().SetMutableBinding(loc.Name, value, strict)
	case LocGlobal:
		return global.SetMutableBinding(loc.Name, value, strict)
	case LocSilent:
		return nil
	default:
		return fmt.Errorf("TypeError: Assignment to constant variable %q", loc.Name)
	}
}
