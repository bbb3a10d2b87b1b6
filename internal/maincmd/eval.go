package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/esvm/lang/astbuild"
	"github.com/mna/esvm/lang/environment"
	"github.com/mna/esvm/lang/eval"
	"github.com/mna/esvm/lang/machine"
	"github.com/mna/esvm/lang/object"
)

// Eval implements the `eval` command: indirect-eval the program built
// from the JSON AST file named by args[0] against a fresh global scope,
// printing the completion value (see eval.PerformEval for what that is).
func (c *Cmd) Eval(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) == 0 {
		return printError(stdio, fmt.Errorf("eval: a program file must be provided"))
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, fmt.Errorf("eval: %w", err))
	}
	prog, err := astbuild.BuildProgram(src)
	if err != nil {
		return printError(stdio, err)
	}

	globalEnv := environment.NewCompileTimeEnvironment(true)
	th := machine.NewThread(globalEnv)
	th.Stdout = stdio.Stdout
	th.Stderr = stdio.Stderr
	th.MaxSteps = c.MaxSteps
	th.MaxCallStackDepth = c.MaxCallStackDepth

	result, err := eval.PerformEval(th, prog)
	if err != nil {
		return printError(stdio, fmt.Errorf("eval: %w", err))
	}
	fmt.Fprintln(stdio.Stdout, object.ToStringValue(result))
	return nil
}
