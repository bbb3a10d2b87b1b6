// Package machine implements the Call/Construct Engine: the bytecode
// interpreter that executes a compiler.CodeBlock against an
// environment.Stack, and the runtime Function value that ties a CodeBlock
// to the closure it captured. Much of its shape (the Thread carrying
// ambient execution limits and I/O, a Frame per activation, a step
// counter checked on every instruction) is adapted from the teacher's
// Starlark-derived lang/machine package; the instruction set, the
// environment model and the Call/Construct semantics themselves are
// esvm's own (§4.4, §4.5).
package machine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/object"
)

// Thread is one realm's execution context. A Function closes over the
// Thread that created it (its [[Realm]]) since object.Callable.Call
// carries no Thread parameter of its own.
type Thread struct {
	// Name is an optional name, mostly for debugging/diagnostics.
	Name string

	Stdout io.Writer
	Stderr io.Writer

	// MaxSteps bounds the number of bytecode instructions a single Call may
	// execute before the thread cancels itself. A value <= 0 means no limit.
	MaxSteps int

	// MaxCallStackDepth bounds the nesting depth of Call/Construct
	// activations. A value <= 0 means no limit.
	MaxCallStackDepth int

	// Stack is the lexical environment stack shared by every activation
	// running on this thread.
	Stack *environment.Stack

	// Global is the global object, also the Bindable backing the global
	// declarative environment's var bindings via the object environment
	// protocol used for `with`/unscopables lookups elsewhere.
	Global *object.Object

	// ObjectProto and FunctionProto are the two intrinsics the Call Engine
	// needs to build a function object from a CodeBlock (§4.3): every
	// ordinary object's default prototype, and the prototype every
	// function object itself inherits from.
	ObjectProto   *object.Object
	FunctionProto *object.Object

	ctx       context.Context
	ctxCancel context.CancelFunc
	steps     uint64
	maxSteps  uint64
	callDepth int
}

// NewThread creates a realm: a global object, the Object.prototype and
// Function.prototype intrinsics, and the environment stack's global
// environment wired over the global object.
func NewThread(globalCompileEnv *environment.CompileTimeEnvironment) *Thread {
	objProto := object.New(nil)
	funcProto := object.New(objProto)
	global := object.New(objProto)

	th := &Thread{
		Global:        global,
		ObjectProto:   objProto,
		FunctionProto: funcProto,
	}
	th.Stack = environment.NewStack(globalCompileEnv, global)
	th.init()
	return th
}

func (th *Thread) init() {
	if th.ctx != nil {
		return
	}
	if th.MaxSteps <= 0 {
		th.maxSteps--
	} else {
		th.maxSteps = uint64(th.MaxSteps)
	}
	if th.Stdout == nil {
		th.Stdout = os.Stdout
	}
	if th.Stderr == nil {
		th.Stderr = os.Stderr
	}
	th.ctx, th.ctxCancel = context.WithCancel(context.Background())
}

// Cancel stops the thread; any instruction loop currently running on it
// observes this on its next step and unwinds with a context error.
func (th *Thread) Cancel() {
	if th.ctxCancel != nil {
		th.ctxCancel()
	}
}

func (th *Thread) enterCall() error {
	th.init()
	th.callDepth++
	if th.MaxCallStackDepth > 0 && th.callDepth > th.MaxCallStackDepth {
		th.callDepth--
		return fmt.Errorf("RangeError: call stack size exceeded")
	}
	return nil
}

func (th *Thread) exitCall() { th.callDepth-- }

func (th *Thread) checkStep() error {
	th.steps++
	if th.steps >= th.maxSteps {
		th.ctxCancel()
		return fmt.Errorf("thread cancelled: %w", context.Cause(th.ctx))
	}
	select {
	case <-th.ctx.Done():
		return fmt.Errorf("thread cancelled: %w", context.Cause(th.ctx))
	default:
		return nil
	}
}
