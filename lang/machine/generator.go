package machine

import (
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/object"
)

// Generator is the runtime state behind a generator function's call
// result (§4.4 step 10, §9's "state machines with suspension"): calling
// a generator function never runs its body -- it returns this suspended
// object immediately, and each `next()` call drives execution up to the
// following YIELD (or to completion) and back.
//
// Suspension is implemented as a goroutine parked on a channel receive
// rather than by hand-serializing the bytecode loop's pc/operand-stack/
// handler-stack state: run's own Go call stack already holds exactly
// that state, paused in place, for as long as the goroutine blocks. The
// in/out channel handoff is a strict baton pass -- the driver (whichever
// goroutine called next()) always blocks immediately after handing
// control to the generator goroutine and vice versa -- so only one
// goroutine ever touches the shared Thread/environment.Stack at a time;
// there is no real concurrency to race over.
type Generator struct {
	th   *Thread
	f    *Function
	this object.Value
	args []object.Value

	started bool
	done    bool

	envBase  int
	snapshot []*environment.Environment // saved suspended environment extension

	in  chan resumeMsg
	out chan yieldMsg
}

type resumeMsg struct {
	value object.Value
}

type yieldMsg struct {
	value object.Value
	done  bool
	err   error
}

// newGeneratorObject builds the object a generator function's Call
// returns: its prototype is the function's own non-writable `prototype`
// property (object.TemplateGenerator's link to the generator prototype
// intrinsic, not cross-linked to the function the way an ordinary
// constructor's is), and it exposes a single `next` method closing over
// this invocation's suspended Generator state.
func newGeneratorObject(f *Function, this object.Value, args []object.Value) *object.Object {
	th := f.th
	proto := th.ObjectProto
	if p, ok := f.self.Get("prototype"); ok {
		if po, ok := p.(*object.Object); ok {
			proto = po
		}
	}

	gen := &Generator{th: th, f: f, this: this, args: args}
	obj := object.New(proto)
	nextFn := &object.NativeFunction{FnName: "next", Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
		var resumeValue object.Value = object.Undefined{}
		if len(args) > 0 {
			resumeValue = args[0]
		}
		return gen.Next(resumeValue)
	}}
	nextObj := object.NewFunctionObject(object.TemplateArrowOrMethod, "next", 1, th.FunctionProto, th.ObjectProto, nextFn)
	obj.DefineOwnProperty("next", object.NonEnumerableProperty(nextObj))
	return obj
}

// Next resumes the generator with resumeValue as the result of the
// pending `yield` expression (ignored on the very first call, which
// instead starts the body from instruction 0), and returns the standard
// `{value, done}` iterator result.
func (g *Generator) Next(resumeValue object.Value) (*object.Object, error) {
	if g.done {
		return iterResult(g.th, object.Undefined{}, true), nil
	}
	if err := g.th.enterCall(); err != nil {
		return nil, err
	}
	defer g.th.exitCall()

	stack := g.th.Stack
	callerEnvs := stack.PopToGlobal()
	defer stack.Extend(callerEnvs)

	if !g.started {
		g.started = true
		g.in = make(chan resumeMsg)
		g.out = make(chan yieldMsg)

		stack.Extend(g.f.closure)
		fnEnv := g.f.cb.FunctionCompileEnvironment()
		g.envBase = stack.Len()
		stack.PushFunction(fnEnv.NumBindings(), fnEnv, g.this, true, g.f.self, nil, false)
		if g.f.home != nil {
			stack.Current().Slots().HasSuper = true
		}
		g.f.bindParameters(stack, g.envBase, g.args)

		go func() {
			result, err := run(g.th, g.f, g.envBase, g)
			g.th.Stack.Truncate(1)
			g.out <- yieldMsg{value: result, done: true, err: err}
		}()
	} else {
		stack.Extend(g.snapshot)
		g.snapshot = nil
		g.in <- resumeMsg{value: resumeValue}
	}

	msg := <-g.out
	if msg.done {
		g.done = true
	}
	if msg.err != nil {
		return nil, msg.err
	}
	return iterResult(g.th, msg.value, msg.done), nil
}

// suspend is called by run's YIELD handler. It detaches the generator's
// own environment extension above the global environment (so the driver
// that called next() can restore its unrelated caller environments
// instead) and blocks until the next next() call hands back a resumed
// value.
func (g *Generator) suspend(v object.Value) object.Value {
	g.snapshot = g.th.Stack.PopToGlobal()
	g.out <- yieldMsg{value: v}
	msg := <-g.in
	return msg.value
}

func iterResult(th *Thread, value object.Value, done bool) *object.Object {
	o := object.New(th.ObjectProto)
	o.DefineOwnProperty("value", object.DataProperty(value))
	o.DefineOwnProperty("done", object.DataProperty(object.Boolean(done)))
	return o
}
