package machine

import (
	"fmt"

	"github.com/mna/esvm/lang/compiler"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/object"
	"github.com/mna/esvm/lang/token"
)

// thrownError wraps a script-level THROW value so that raise (the handler
// search below) can recover it verbatim instead of re-wrapping it as a
// string; runtime errors raised from inside an opcode (TypeErrors,
// ReferenceErrors and so on) are plain Go errors and surface to a script
// catch clause as a String value instead of an Error instance -- this core
// does not model the Error constructor family (see DESIGN.md).
type thrownError struct{ value object.Value }

func (t *thrownError) Error() string { return object.ToStringValue(t.value) }

// tryHandler is one entry of run's handler stack, pushed by TRY and popped
// either by ENDTRY (normal exit from the protected region) or by raise (an
// exception unwinding through it).
type tryHandler struct {
	catchPC, finallyPC int
	envDepth           int
	opDepth            int
}

// run executes f's CodeBlock from instruction 0 against th.Stack, whose
// topmost environments were already arranged by invoke (the closure
// restored, the function/parameter environments pushed). envBase is the
// absolute stack index of the CodeBlock's own function environment,
// i.e. the offset every LocDeclarative locator pulled from cb.Bindings
// must be translated by before it is resolved (see Frame's doc comment).
// gen is non-nil when f is a generator body running on its own
// suspend/resume goroutine (see generator.go); YIELD is only legal when
// gen != nil.
func run(th *Thread, f *Function, envBase int, gen *Generator) (object.Value, error) {
	cb := f.cb
	stack := th.Stack
	code := cb.Code

	var op []object.Value // the bytecode operand stack for this activation
	var handlers []tryHandler
	pc := 0

	pop := func() object.Value {
		v := op[len(op)-1]
		op = op[:len(op)-1]
		return v
	}
	push := func(v object.Value) { op = append(op, v) }

	// raise searches the handler stack for a frame willing to catch err,
	// truncating the environment and operand stacks back to that frame's
	// depth and pushing the thrown value for the catch block to bind. A
	// handler with no catch clause but a finally block is skipped without
	// running its finally code before continuing to search outward: full
	// rethrow-after-finally semantics are not implemented (see DESIGN.md).
	raise := func(err error) (newPC int, handled bool) {
		for len(handlers) > 0 {
			h := handlers[len(handlers)-1]
			handlers = handlers[:len(handlers)-1]
			if h.catchPC < 0 {
				continue
			}
			stack.Truncate(h.envDepth)
			op = op[:h.opDepth]
			var thrown object.Value
			if te, ok := err.(*thrownError); ok {
				thrown = te.value
			} else {
				thrown = object.String(err.Error())
			}
			push(thrown)
			return h.catchPC, true
		}
		return 0, false
	}

	for {
		if err := th.checkStep(); err != nil {
			return nil, err
		}
		if pc < 0 || pc >= len(code) {
			return object.Undefined{}, nil
		}
		ins := code[pc]

		var stepErr error
		switch ins.Op {
		case compiler.NOP:
		case compiler.POP:
			pop()
		case compiler.DUP:
			push(op[len(op)-1])

		case compiler.CONSTANT:
			push(cb.Literals[ins.A])
		case compiler.UNDEFINED:
			push(object.Undefined{})
		case compiler.NULLV:
			push(object.Null{})
		case compiler.TRUE:
			push(object.Boolean(true))
		case compiler.FALSE:
			push(object.Boolean(false))

		case compiler.THIS:
			env := stack.GetThisEnvironment()
			if env == nil {
				stepErr = fmt.Errorf("ReferenceError: no 'this' binding in scope")
				break
			}
			v, err := env.Slots().GetThisBinding()
			if err != nil {
				stepErr = err
				break
			}
			push(v)
		case compiler.NEWTARGET:
			env := stack.GetThisEnvironment()
			if env == nil || env.Slots().NewTarget == nil {
				push(object.Undefined{})
			} else {
				push(env.Slots().NewTarget)
			}

		case compiler.GETBINDING:
			loc := translateLocator(cb.Bindings[ins.A], envBase)
			loc = environment.FindRuntimeBinding(stack, loc)
			v, present, err := environment.Read(stack, loc, th.Global)
			if err != nil {
				stepErr = err
				break
			}
			if !present {
				stepErr = fmt.Errorf("ReferenceError: cannot access %q before initialization", loc.Name)
				break
			}
			push(v)
		case compiler.SETBINDING:
			v := pop()
			loc := translateLocator(cb.Bindings[ins.A], envBase)
			if err := loc.ThrowIfImmutable(); err != nil {
				stepErr = err
				break
			}
			loc = environment.FindRuntimeBinding(stack, loc)
			if err := environment.Write(stack, loc, v, cb.Strict, th.Global); err != nil {
				stepErr = err
				break
			}

		case compiler.BINARY:
			y, x := pop(), pop()
			v, err := object.Binary(token.Token(ins.A), x, y)
			if err != nil {
				stepErr = err
				break
			}
			push(v)
		case compiler.UNARY:
			x := pop()
			v, err := object.Unary(token.Token(ins.A), x)
			if err != nil {
				stepErr = err
				break
			}
			push(v)

		case compiler.NEWOBJECT:
			n := int(ins.A)
			pairs := make([]object.Value, 2*n)
			for i := 2*n - 1; i >= 0; i-- {
				pairs[i] = pop()
			}
			obj := object.New(th.ObjectProto)
			for i := 0; i < n; i++ {
				key := object.ToStringValue(pairs[2*i])
				obj.DefineOwnProperty(key, object.DataProperty(pairs[2*i+1]))
			}
			push(obj)
		case compiler.NEWARRAY:
			n := int(ins.A)
			elems := make([]object.Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = pop()
			}
			push(object.NewArray(th.ObjectProto, elems))

		case compiler.GETPROP:
			name := cb.Names[ins.A]
			v := pop()
			obj, ok := v.(*object.Object)
			if !ok {
				stepErr = fmt.Errorf("TypeError: cannot read property %q of %s", name, object.ToStringValue(v))
				break
			}
			val, found := obj.Get(name)
			if !found {
				val = object.Undefined{}
			}
			push(val)
		case compiler.SETPROP:
			name := cb.Names[ins.A]
			v := pop()
			val := pop()
			obj, ok := v.(*object.Object)
			if !ok {
				stepErr = fmt.Errorf("TypeError: cannot set property %q of %s", name, object.ToStringValue(v))
				break
			}
			if err := obj.SetOwnProperty(name, val); err != nil && cb.Strict {
				stepErr = err
				break
			}
		case compiler.GETINDEX:
			idx := pop()
			v := pop()
			obj, ok := v.(*object.Object)
			if !ok {
				stepErr = fmt.Errorf("TypeError: cannot read property of %s", object.ToStringValue(v))
				break
			}
			val, found := obj.Get(object.ToStringValue(idx))
			if !found {
				val = object.Undefined{}
			}
			push(val)
		case compiler.SETINDEX:
			idx := pop()
			v := pop()
			val := pop()
			obj, ok := v.(*object.Object)
			if !ok {
				stepErr = fmt.Errorf("TypeError: cannot set property of %s", object.ToStringValue(v))
				break
			}
			if err := obj.SetOwnProperty(object.ToStringValue(idx), val); err != nil && cb.Strict {
				stepErr = err
				break
			}

		case compiler.GETSUPERPROP, compiler.GETSUPERINDEX:
			var name string
			if ins.Op == compiler.GETSUPERPROP {
				name = cb.Names[ins.A]
			} else {
				name = object.ToStringValue(pop())
			}
			home, err := currentHome(stack)
			if err != nil {
				stepErr = err
				break
			}
			superProto := home.Prototype()
			var val object.Value = object.Undefined{}
			if superProto != nil {
				if v, found := superProto.Get(name); found {
					val = v
				}
			}
			push(val)
		case compiler.SETSUPERPROP, compiler.SETSUPERINDEX:
			var name string
			var val object.Value
			if ins.Op == compiler.SETSUPERPROP {
				name = cb.Names[ins.A]
				val = pop()
			} else {
				idx := pop()
				val = pop()
				name = object.ToStringValue(idx)
			}
			thisEnv := stack.GetThisEnvironment()
			if thisEnv == nil {
				stepErr = fmt.Errorf("ReferenceError: no 'this' binding in scope")
				break
			}
			this, err := thisEnv.Slots().GetThisBinding()
			if err != nil {
				stepErr = err
				break
			}
			receiver, ok := this.(*object.Object)
			if !ok {
				stepErr = fmt.Errorf("TypeError: cannot set super property %q on non-object receiver", name)
				break
			}
			if err := receiver.SetOwnProperty(name, val); err != nil && cb.Strict {
				stepErr = err
				break
			}

		case compiler.MAKEFUNC:
			push(NewFunctionValue(th, cb.Functions[ins.A]))
		case compiler.MAKECLASS:
			n := int(ins.B)
			type methodPair struct {
				name string
				fn   object.Value
			}
			pairs := make([]methodPair, n)
			for i := n - 1; i >= 0; i-- {
				fnVal := pop()
				nameVal := pop()
				pairs[i] = methodPair{object.ToStringValue(nameVal), fnVal}
			}
			superclass := pop()
			ctor, err := NewClassValue(th, cb.Functions[ins.A], superclass)
			if err != nil {
				stepErr = err
				break
			}
			protoVal, _ := ctor.Get("prototype")
			instanceProto, _ := protoVal.(*object.Object)
			for _, mp := range pairs {
				if fnObj, ok := mp.fn.(*object.Object); ok && instanceProto != nil {
					instanceProto.DefineOwnProperty(mp.name, object.NonEnumerableProperty(fnObj))
					SetHomeObject(fnObj, instanceProto)
				}
			}
			push(ctor)

		case compiler.JMP:
			pc = int(ins.A)
			continue
		case compiler.JMPFALSE:
			cond := pop()
			if !object.ToBoolean(cond) {
				pc = int(ins.A)
				continue
			}
		case compiler.JMPTRUE:
			cond := pop()
			if object.ToBoolean(cond) {
				pc = int(ins.A)
				continue
			}

		case compiler.CALL:
			n := int(ins.A)
			args := make([]object.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = pop()
			}
			calleeVal := pop()
			thisVal := pop()
			callee, ok := calleeVal.(*object.Object)
			if !ok || callee.Callable == nil {
				stepErr = fmt.Errorf("TypeError: %s is not a function", object.ToStringValue(calleeVal))
				break
			}
			result, err := callee.Callable.Call(thisVal, args)
			if err != nil {
				stepErr = err
				break
			}
			push(result)
		case compiler.CALL_NEW:
			n := int(ins.A)
			args := make([]object.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = pop()
			}
			calleeVal := pop()
			callee, ok := calleeVal.(*object.Object)
			if !ok {
				stepErr = fmt.Errorf("TypeError: %s is not a constructor", object.ToStringValue(calleeVal))
				break
			}
			ctor, ok := callee.Callable.(object.Constructable)
			if !ok {
				stepErr = fmt.Errorf("TypeError: %s is not a constructor", object.ToStringValue(calleeVal))
				break
			}
			result, err := ctor.Construct(args, callee)
			if err != nil {
				stepErr = err
				break
			}
			push(result)
		case compiler.CALL_SUPER:
			n := int(ins.A)
			args := make([]object.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = pop()
			}
			thisEnv := stack.GetThisEnvironment()
			if thisEnv == nil || f.self == nil || f.self.Prototype() == nil {
				stepErr = fmt.Errorf("SyntaxError: 'super' keyword is only valid inside a derived class constructor")
				break
			}
			superCtorObj := f.self.Prototype()
			ctor, ok := superCtorObj.Callable.(object.Constructable)
			if !ok {
				stepErr = fmt.Errorf("TypeError: super constructor is not a constructor")
				break
			}
			newTarget := f.self
			if nt, ok := thisEnv.Slots().NewTarget.(*object.Object); ok {
				newTarget = nt
			}
			result, err := ctor.Construct(args, newTarget)
			if err != nil {
				stepErr = err
				break
			}
			if err := thisEnv.Slots().BindThisValue(result); err != nil {
				stepErr = err
				break
			}
			push(result)

		case compiler.RETURN:
			return pop(), nil
		case compiler.YIELD:
			v := pop()
			if gen == nil {
				stepErr = fmt.Errorf("SyntaxError: 'yield' is only valid inside a generator function")
				break
			}
			push(gen.suspend(v))
		case compiler.THROW:
			v := pop()
			if newPC, handled := raise(&thrownError{value: v}); handled {
				pc = newPC
				continue
			}
			return nil, &thrownError{value: v}

		case compiler.PUSHBLOCKENV:
			ce := cb.CompileEnvironments[ins.A]
			stack.PushDeclarative(ce.NumBindings(), ce)
		case compiler.PUSHWITH:
			v := pop()
			obj, ok := v.(*object.Object)
			if !ok {
				stepErr = fmt.Errorf("TypeError: cannot use %s as a 'with' target", object.ToStringValue(v))
				break
			}
			stack.PushObject(obj)
		case compiler.POPENV:
			stack.Pop()

		case compiler.TRY:
			handlers = append(handlers, tryHandler{
				catchPC:   int(ins.A),
				finallyPC: int(ins.B),
				envDepth:  stack.Len(),
				opDepth:   len(op),
			})
		case compiler.ENDTRY:
			if len(handlers) > 0 {
				handlers = handlers[:len(handlers)-1]
			}

		default:
			stepErr = fmt.Errorf("machine: unimplemented opcode %s", ins.Op)
		}

		if stepErr != nil {
			if newPC, handled := raise(stepErr); handled {
				pc = newPC
				continue
			}
			return nil, stepErr
		}

		pc++
	}
}

// translateLocator rebases a LocDeclarative locator taken from
// CodeBlock.Bindings (numbered 0 from the CodeBlock's own function
// environment) to the thread's shared environment.Stack, whose indices
// start at the global environment. Other locator kinds need no
// translation: LocGlobal and the sentinels carry no stack index, and
// LocObject locators are themselves produced by FindRuntimeBinding at
// runtime, never read out of the Bindings table directly.
func translateLocator(loc environment.Locator, envBase int) environment.Locator {
	if loc.Kind == environment.LocDeclarative {
		loc.EnvironmentIndex += envBase
	}
	return loc
}

// currentHome returns the [[HomeObject]] of the nearest enclosing method
// or constructor body, following the same environment (arrows inherit
// their enclosing method's function slots, including FunctionObject) that
// GetThisEnvironment already uses to resolve `this`.
func currentHome(stack *environment.Stack) (*object.Object, error) {
	env := stack.GetThisEnvironment()
	if env == nil {
		return nil, fmt.Errorf("SyntaxError: 'super' keyword is only valid inside a method")
	}
	fo, ok := env.Slots().FunctionObject.(*object.Object)
	if !ok {
		return nil, fmt.Errorf("SyntaxError: 'super' keyword is only valid inside a method")
	}
	fn, ok := fo.Callable.(*Function)
	if !ok || fn.home == nil {
		return nil, fmt.Errorf("SyntaxError: 'super' keyword is only valid inside a method")
	}
	return fn.home, nil
}

// invoke is the Call/Construct Engine's common core (§4.4/§4.5): swap f's
// closure onto the thread's environment stack in place of the caller's
// environments, push the function (or, for arrows, the inherited) runtime
// environment, bind parameters, run the bytecode, then restore the
// caller's environments before returning. The returned *environment.
// FunctionSlots is the (now-popped) function environment's slots, captured
// before the stack is truncated: Construct needs it to read back the
// `this` binding CALL_SUPER may have bound in a derived constructor, since
// that environment no longer exists on the stack by the time invoke
// returns. It is nil for arrow functions, which never own a `this`
// binding of their own.
func (f *Function) invoke(this object.Value, thisPresent bool, args []object.Value, newTarget object.Value) (object.Value, *environment.FunctionSlots, error) {
	th := f.th
	if err := th.enterCall(); err != nil {
		return nil, nil, err
	}
	defer th.exitCall()

	stack := th.Stack
	callerEnvs := stack.PopToGlobal()
	stack.Extend(f.closure)

	cb := f.cb
	fnEnv := cb.FunctionCompileEnvironment()
	envBase := stack.Len()

	if cb.IsArrow {
		stack.PushFunctionInherit(fnEnv.NumBindings(), fnEnv)
	} else {
		var thisVal object.Value = object.Undefined{}
		if thisPresent {
			thisVal = this
		}
		stack.PushFunction(fnEnv.NumBindings(), fnEnv, thisVal, thisPresent, f.self, newTarget, false)
		if f.home != nil {
			stack.Current().Slots().HasSuper = true
		}
	}

	f.bindParameters(stack, envBase, args)

	result, err := run(th, f, envBase, nil)
	fnSlots := stack.At(envBase).Slots()

	stack.Truncate(1)
	stack.Extend(callerEnvs)
	return result, fnSlots, err
}

// bindParameters writes args into the parameter bindings of the function
// environment just pushed at envBase. Parameter default-value expressions
// are not evaluated here: the compiler emits a GETBINDING/UNDEFINED guard
// ahead of each defaulted parameter's own code (see compiler/functions.go),
// so a plain undefined-for-missing write is all this step needs to do.
// The arguments object built here is always the unmapped form: writes to
// named parameters are not mirrored back onto it (see DESIGN.md).
func (f *Function) bindParameters(stack *environment.Stack, envBase int, args []object.Value) {
	cb := f.cb
	fnEnv := cb.FunctionCompileEnvironment()
	i := 0
	for _, p := range cb.Params.List {
		if p.Rest {
			var rest []object.Value
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			arr := object.NewArray(f.th.ObjectProto, rest)
			if envIdx, bindIdx, ok := fnEnv.GetBinding(p.Name); ok {
				stack.PutDeclarativeValue(envBase+envIdx, bindIdx, arr)
			}
			i = len(args)
			continue
		}
		var v object.Value = object.Undefined{}
		if i < len(args) {
			v = args[i]
		}
		if envIdx, bindIdx, ok := fnEnv.GetBinding(p.Name); ok {
			stack.PutDeclarativeValue(envBase+envIdx, bindIdx, v)
		}
		i++
	}
	if cb.ArgumentsBinding != nil {
		argsObj := object.NewArray(f.th.ObjectProto, args)
		loc := translateLocator(*cb.ArgumentsBinding, envBase)
		_ = environment.Write(stack, loc, argsObj, cb.Strict, f.th.Global)
	}
}
