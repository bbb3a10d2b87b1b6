package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/sahilm/fuzzy"

	"github.com/mna/esvm/lang/astbuild"
	"github.com/mna/esvm/lang/compiler"
	"github.com/mna/esvm/lang/environment"
)

// Disasm implements the `disasm` command: compile the program built from
// the JSON AST file named by args[0] and print its bytecode, the nested
// CodeBlock for every function it contains included, in the pseudo-
// assembly idiom of compiler.Disassemble. When c.Grep is set, only the
// lines naming an opcode fuzzy-matching it survive, the same shape
// sahilm/fuzzy gives aenv's TUI list filtering.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) == 0 {
		return printError(stdio, fmt.Errorf("disasm: a program file must be provided"))
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, fmt.Errorf("disasm: %w", err))
	}
	prog, err := astbuild.BuildProgram(src)
	if err != nil {
		return printError(stdio, err)
	}

	globalEnv := environment.NewCompileTimeEnvironment(true)
	cb, err := compiler.CompileProgram(prog, globalEnv, false, false)
	if err != nil {
		return printError(stdio, fmt.Errorf("disasm: %w", err))
	}

	if c.Grep == "" {
		return compiler.Disassemble(stdio.Stdout, cb)
	}

	var buf bufferWriter
	if err := compiler.Disassemble(&buf, cb); err != nil {
		return printError(stdio, err)
	}
	lines := buf.Lines()
	matches := fuzzy.Find(c.Grep, lines)
	for _, m := range matches {
		fmt.Fprintln(stdio.Stdout, lines[m.Index])
	}
	return nil
}
