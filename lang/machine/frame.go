package machine

import "github.com/mna/esvm/lang/compiler"

// Frame records one activation of the bytecode interpreter: the CodeBlock
// currently executing, its program counter, and envBase — the absolute
// index on the thread's environment.Stack at which this call's own
// function environment was pushed. The compiler numbers a CodeBlock's
// PUSHBLOCKENV/locator environment indices starting from 0 for the
// function's own environment; envBase is added to every LocDeclarative
// locator's EnvironmentIndex before it is resolved, translating that
// CodeBlock-local numbering to the shared stack's absolute indices (see
// run in machine.go).
type Frame struct {
	cb      *compiler.CodeBlock
	pc      int
	envBase int
}
