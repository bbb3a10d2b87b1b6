package machine

import (
	"fmt"

	"github.com/mna/esvm/lang/compiler"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/object"
)

// Function is the runtime representation of a script-defined function
// value: a compiled CodeBlock plus the lexical environment chain it
// closed over ([[Environment]]), captured once via environment.Stack.Snapshot
// at the point the function expression is evaluated. Every Call/Construct
// swaps this chain back onto the thread's single flat environment.Stack
// for the duration of the invocation and restores the caller's chain
// afterward (see run, in machine.go).
type Function struct {
	th      *Thread
	cb      *compiler.CodeBlock
	closure []*environment.Environment
	home    *object.Object // [[HomeObject]], set on methods/constructors for super lookups
	self    *object.Object // the object this Function is wrapped in, needed to find super's constructor
}

var (
	_ object.Callable      = (*Function)(nil)
	_ object.Constructable = (*Function)(nil)
)

func (f *Function) Name() string { return f.cb.Name }

// Call implements object.Callable, the Call Engine of §4.4.
func (f *Function) Call(this object.Value, args []object.Value) (object.Value, error) {
	if f.cb.IsClassConstructor {
		return nil, fmt.Errorf("TypeError: class constructor %s cannot be invoked without 'new'", f.cb.Name)
	}
	if f.cb.IsGenerator {
		return newGeneratorObject(f, this, args), nil
	}
	result, _, err := f.invoke(this, true, args, nil)
	return result, err
}

// Construct implements object.Constructable, the Construct Engine of §4.5.
// newTarget is the function being `new`-ed (the same as the receiver for
// `new Foo()`, but may differ when a derived class forwards it via
// super()).
func (f *Function) Construct(args []object.Value, newTarget *object.Object) (object.Value, error) {
	if f.cb.IsArrow || f.cb.IsGenerator || (f.cb.IsMethod && !f.cb.IsClassConstructor) {
		return nil, fmt.Errorf("TypeError: %s is not a constructor", f.cb.Name)
	}

	var this object.Value
	thisPresent := !f.cb.IsDerivedConstructor
	if thisPresent {
		proto := f.th.ObjectProto
		if newTarget != nil {
			if p, ok := newTarget.Get("prototype"); ok {
				if po, ok := p.(*object.Object); ok {
					proto = po
				}
			}
		}
		this = object.New(proto)
	}

	var nt object.Value
	if newTarget != nil {
		nt = newTarget
	}
	result, fnSlots, err := f.invoke(this, thisPresent, args, nt)
	if err != nil {
		return nil, err
	}
	if obj, ok := result.(*object.Object); ok {
		return obj, nil
	}
	if thisPresent {
		return this, nil
	}
	// Derived constructor: the body returned no object. Per §4.5 step 4,
	// a non-undefined, non-object return value is a TypeError; an
	// undefined return (explicit or fallen off the end) means the final
	// `this` comes from whatever super() bound via CALL_SUPER, read back
	// from the now-popped function environment's slots.
	if _, ok := result.(object.Undefined); !ok {
		return nil, fmt.Errorf("TypeError: derived constructor can only return an Object or undefined")
	}
	v, err := fnSlots.GetThisBinding()
	if err != nil {
		return nil, err
	}
	return v.(object.Value), nil
}

// NewFunctionValue wraps cb as a callable object, capturing th.Stack's
// current environment chain as the function's closure (§4.3's fast path:
// name/length are pre-placed by object.NewFunctionObject, and a fresh
// .prototype is cross-linked for ordinary functions). The function has no
// [[HomeObject]] until SetHomeObject installs one (class methods acquire
// theirs once MAKECLASS builds the instance prototype they are defined
// on, since that object does not exist yet at the point a method's own
// MAKEFUNC instruction runs).
func NewFunctionValue(th *Thread, cb *compiler.CodeBlock) *object.Object {
	fn := &Function{th: th, cb: cb, closure: th.Stack.Snapshot()}
	template := object.TemplateOrdinary
	switch {
	case cb.IsArrow, cb.IsMethod:
		template = object.TemplateArrowOrMethod
	case cb.IsGenerator:
		template = object.TemplateGenerator
	}
	obj := object.NewFunctionObject(template, cb.Name, cb.Length, th.FunctionProto, th.ObjectProto, fn)
	fn.self = obj
	return obj
}

// SetHomeObject installs home as fnObj's [[HomeObject]], used by MAKECLASS
// once it has built the instance prototype a method is defined on.
func SetHomeObject(fnObj *object.Object, home *object.Object) {
	if fn, ok := fnObj.Callable.(*Function); ok {
		fn.home = home
	}
}

// NewClassValue wraps ctorCB as a class constructor. When a superclass is
// given, the constructor's own [[Prototype]] becomes the superclass
// constructor itself (so that static members are inherited) and the
// instance prototype's [[Prototype]] is the superclass's own .prototype;
// object.WithCustomPrototype is not used here since its per-instance
// slow-path contract (a single shared custom prototype, unrelated to any
// superclass) does not line up with this two-link chain, so the
// constructor and its .prototype property are wired directly instead.
func NewClassValue(th *Thread, ctorCB *compiler.CodeBlock, superclass object.Value) (*object.Object, error) {
	objProto := th.ObjectProto
	ctorProto := th.FunctionProto

	var superProto *object.Object
	if superclass != nil {
		if _, isUndef := superclass.(object.Undefined); !isUndef {
			superCtor, ok := superclass.(*object.Object)
			if !ok || superCtor.Callable == nil {
				return nil, fmt.Errorf("TypeError: class extends value is not a constructor")
			}
			ctorProto = superCtor
			if p, ok := superCtor.Get("prototype"); ok {
				superProto, _ = p.(*object.Object)
			}
		}
	}
	if superProto == nil {
		superProto = objProto
	}

	fn := &Function{th: th, cb: ctorCB, closure: th.Stack.Snapshot()}
	ctor := object.New(ctorProto)
	ctor.Callable = fn
	ctor.DefineOwnProperty("name", object.NonEnumerableProperty(object.String(ctorCB.Name)))
	ctor.DefineOwnProperty("length", object.NonEnumerableProperty(object.Number(ctorCB.Length)))

	instanceProto := object.New(superProto)
	instanceProto.DefineOwnProperty("constructor", object.NonEnumerableProperty(ctor))
	ctor.DefineOwnProperty("prototype", object.Property{Value: instanceProto, Writable: true})

	fn.self = ctor
	fn.home = instanceProto
	return ctor, nil
}
