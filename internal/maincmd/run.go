package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/mna/mainer"

	"github.com/mna/esvm/lang/astbuild"
	"github.com/mna/esvm/lang/compiler"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/machine"
	"github.com/mna/esvm/lang/object"
)

// Run implements the `run` command: compile the program built from the
// JSON AST file named by args[0] into a top-level CodeBlock, wrap it as
// an ordinary function closed over nothing but the global scope, and
// call it with `this` undefined, printing whatever value it returns.
//
// MaxSteps and MaxCallStackDepth are plain struct-tag flags, so
// mainer.Parser{EnvVars: true} also lets an operator set them with
// ESVM_MAXSTEPS / ESVM_MAXCALLSTACKDEPTH, matching the ambient-stack
// convention carried over from the teacher's own env-var-bindable flags.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) == 0 {
		return printError(stdio, fmt.Errorf("run: a program file must be provided"))
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, fmt.Errorf("run: %w", err))
	}
	prog, err := astbuild.BuildProgram(src)
	if err != nil {
		return printError(stdio, err)
	}
	if c.Guard != "" {
		if err := c.checkGuard(src); err != nil {
			return printError(stdio, err)
		}
	}

	globalEnv := environment.NewCompileTimeEnvironment(true)
	cb, err := compiler.CompileProgram(prog, globalEnv, false, false)
	if err != nil {
		return printError(stdio, fmt.Errorf("run: %w", err))
	}

	th := machine.NewThread(globalEnv)
	th.Stdout = stdio.Stdout
	th.Stderr = stdio.Stderr
	th.MaxSteps = c.MaxSteps
	th.MaxCallStackDepth = c.MaxCallStackDepth

	fnObj := machine.NewFunctionValue(th, cb)
	result, err := fnObj.Callable.Call(object.Undefined{}, nil)
	if err != nil {
		return printError(stdio, fmt.Errorf("run: %w", err))
	}
	fmt.Fprintln(stdio.Stdout, object.ToStringValue(result))
	return nil
}

// checkGuard compiles c.Guard as an expr-lang boolean expression against a
// small environment describing the candidate source (currently just its
// byte length) and refuses to run unless it evaluates truthy. The run
// command calls it before compiling the program; lang/eval itself has no
// host hook for this check, so PerformEval and PerformDirectEval never
// consult the guard.
func (c *Cmd) checkGuard(src []byte) error {
	program, err := expr.Compile(c.Guard, expr.Env(guardEnv{}), expr.AsBool())
	if err != nil {
		return fmt.Errorf("run: invalid --guard expression: %w", err)
	}
	out, err := expr.Run(program, guardEnv{SourceLen: len(src)})
	if err != nil {
		return fmt.Errorf("run: --guard expression failed: %w", err)
	}
	if ok, _ := out.(bool); !ok {
		return fmt.Errorf("run: refused by --guard: %s", c.Guard)
	}
	return nil
}

type guardEnv struct {
	SourceLen int
}
