package object

// Callable is implemented by any value that may be the target of a call
// or construct operation. Concrete implementations (native host functions,
// and the bytecode-backed function produced from a CodeBlock) live outside
// this package, in lang/machine, so that this package never needs to
// import the compiler: Object.Callable only ever holds this interface.
type Callable interface {
	Name() string
	// Call invokes the callable with the given this value and argument
	// vector. Constructing behavior (new Foo()) is driven by the
	// Construct Engine in lang/machine, which may type-assert a Callable
	// to a Constructable when the callee supports `new`.
	Call(this Value, args []Value) (Value, error)
}

// Constructable is implemented by callables that additionally support
// `new`. Arrow functions, methods, and native functions without a
// construct behavior do not implement it.
type Constructable interface {
	Callable
	Construct(args []Value, newTarget *Object) (Value, error)
}

// TemplateKind selects which of the §4.3 function-object templates to
// instantiate: the property contract (writable/enumerable/configurable
// bits, and whether a `prototype` property exists at all) differs across
// the four combinations named by the spec.
type TemplateKind uint8

const (
	// TemplateOrdinary is a plain, non-async, non-generator function: it
	// gets a mutable, non-enumerable, non-configurable `prototype`
	// property cross-linked back to the function.
	TemplateOrdinary TemplateKind = iota
	// TemplateArrowOrMethod covers arrow functions and methods, neither of
	// which has its own `prototype` property.
	TemplateArrowOrMethod
	// TemplateGenerator covers generator and async-generator functions: a
	// `prototype` property exists but is non-writable, non-enumerable,
	// non-configurable. It holds a fresh object whose own prototype is
	// objProto; that object is not cross-linked to the function and is not
	// linked to any generator prototype intrinsic.
	TemplateGenerator
)

// NewFunctionObject instantiates a function object using template, the
// §4.3 fast path: `name` and `length` are pre-placed as
// non-writable/non-enumerable/configurable properties, and (for
// TemplateOrdinary) a fresh prototype object is created and cross-linked
// so that fn.prototype.constructor === fn. funcProto is the Function.prototype
// intrinsic used as this object's own prototype; objProto is
// Object.prototype, used as the fresh .prototype object's prototype.
func NewFunctionObject(template TemplateKind, name string, length int, funcProto, objProto *Object, callable Callable) *Object {
	fn := New(funcProto)
	fn.Callable = callable
	fn.DefineOwnProperty("name", NonEnumerableProperty(String(name)))
	fn.DefineOwnProperty("length", NonEnumerableProperty(Number(length)))

	switch template {
	case TemplateOrdinary:
		proto := New(objProto)
		proto.DefineOwnProperty("constructor", NonEnumerableProperty(fn))
		fn.DefineOwnProperty("prototype", Property{Value: proto, Writable: true})
	case TemplateGenerator:
		fn.DefineOwnProperty("prototype", FrozenProperty(New(objProto)))
	case TemplateArrowOrMethod:
		// no prototype property at all
	}
	return fn
}

// WithCustomPrototype implements the §4.3 slow path: instantiate the
// template without a prototype (TemplateArrowOrMethod never defines one,
// which is what the slow path needs before the transition), then perform
// a prototype transition to proto and cross-link proto.constructor when
// applicable (ordinary, non-generator functions only).
func WithCustomPrototype(template TemplateKind, name string, length int, funcProto, objProto, proto *Object, callable Callable) *Object {
	fn := NewFunctionObject(TemplateArrowOrMethod, name, length, funcProto, objProto, callable)
	fn.SetPrototype(proto)
	if template == TemplateOrdinary {
		proto.DefineOwnProperty("constructor", NonEnumerableProperty(fn))
		instanceProto := New(objProto)
		instanceProto.DefineOwnProperty("constructor", NonEnumerableProperty(fn))
		fn.DefineOwnProperty("prototype", Property{Value: instanceProto, Writable: true})
	}
	return fn
}

// NativeFunction adapts a Go function to Callable, used for host-provided
// intrinsics (Object.prototype methods, console.log, etc.).
type NativeFunction struct {
	FnName string
	Fn     func(this Value, args []Value) (Value, error)
}

func (n *NativeFunction) Name() string { return n.FnName }
func (n *NativeFunction) Call(this Value, args []Value) (Value, error) {
	return n.Fn(this, args)
}
