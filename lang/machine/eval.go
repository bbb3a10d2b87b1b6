package machine

import (
	"github.com/mna/esvm/lang/compiler"
	"github.com/mna/esvm/lang/object"
)

// RunEval executes cb -- a CodeBlock compiled with compiler.CompileProgram's
// isEval=true, whose top-level bindings were resolved directly into the
// outer compile-time environment passed as that call's outerCompileEnv --
// against th.Stack with no new function environment pushed, since an eval
// body has none of its own: its bindings already live in whichever
// environment is already sitting on the stack at the index that
// outerCompileEnv was given when it was first built (index 0, the global
// environment, for the indirect eval lang/eval.PerformEval drives). The
// caller is responsible for widening that environment's runtime slot
// vector first, via environment.Stack.ExtendOuterFunctionEnvironment,
// since CompileProgram may have declared new bindings into it.
func RunEval(th *Thread, cb *compiler.CodeBlock) (object.Value, error) {
	return runEval(th, cb, 0)
}

// RunDirectEval is RunEval generalized to a non-global envBase: direct
// eval (lang/eval.PerformDirectEval) hoists its bindings into the calling
// scope's own nearest function environment rather than always the global
// one, so the translation offset every LocDeclarative locator in cb needs
// (see run's envBase doc comment) is wherever that environment actually
// sits on th.Stack, not always 0. Running with no new environment pushed
// also means THIS/NEWTARGET -- which read th.Stack.GetThisEnvironment()
// dynamically, independent of envBase -- see straight through to the
// caller's own `this`/new.target and through any `with` object
// environments still sitting above it, exactly as direct eval requires.
func RunDirectEval(th *Thread, cb *compiler.CodeBlock, envBase int) (object.Value, error) {
	return runEval(th, cb, envBase)
}

func runEval(th *Thread, cb *compiler.CodeBlock, envBase int) (object.Value, error) {
	if err := th.enterCall(); err != nil {
		return nil, err
	}
	defer th.exitCall()
	fn := &Function{th: th, cb: cb}
	return run(th, fn, envBase, nil)
}
