package compiler

import (
	"fmt"
	"io"

	"github.com/mna/esvm/lang/environment"
)

// Disassemble writes a human-readable rendering of cb and (recursively)
// every nested CodeBlock in cb.Functions to w, in a textual form closely
// modeled on the teacher's lang/compiler/asm.go disassembly format: one
// `function:` section per CodeBlock, followed by its literals, names, the
// arguments binding (when it has one) and code listing. Unlike the teacher's asm format this is
// disassembly-only (there is no matching assembler): esvm's bytecode is
// produced exclusively by CompileProgram, so a round-trippable textual
// assembly format would have no caller.
func Disassemble(w io.Writer, cb *CodeBlock) error {
	return disassemble(w, cb, 0)
}

func disassemble(w io.Writer, cb *CodeBlock, depth int) error {
	name := cb.Name
	if name == "" {
		name = "<anonymous>"
	}
	if _, err := fmt.Fprintf(w, "function: %s <params=%d strict=%t arrow=%t generator=%t async=%t method=%t ctor=%t derived=%t>\n",
		name, cb.Length, cb.Strict, cb.IsArrow, cb.IsGenerator, cb.IsAsync, cb.IsMethod, cb.IsClassConstructor, cb.IsDerivedConstructor); err != nil {
		return err
	}

	if len(cb.Literals) > 0 {
		fmt.Fprintln(w, "  literals:")
		for i, lit := range cb.Literals {
			fmt.Fprintf(w, "    %3d  %v\n", i, lit)
		}
	}
	if len(cb.Names) > 0 {
		fmt.Fprintln(w, "  names:")
		for i, n := range cb.Names {
			fmt.Fprintf(w, "    %3d  %s\n", i, n)
		}
	}
	if cb.ArgumentsBinding != nil {
		fmt.Fprintf(w, "  arguments: env=%d binding=%d\n", cb.ArgumentsBinding.EnvironmentIndex, cb.ArgumentsBinding.BindingIndex)
	}

	fmt.Fprintln(w, "  code:")
	for pc, ins := range cb.Code {
		fmt.Fprintf(w, "    %4d  %-14s", pc, ins.Op.String())
		switch ins.Op {
		case GETBINDING, SETBINDING:
			fmt.Fprintf(w, " %s", locatorAt(cb, int(ins.A)))
		case CONSTANT:
			fmt.Fprintf(w, " %v", litAt(cb, int(ins.A)))
		case GETPROP, SETPROP, GETSUPERPROP, SETSUPERPROP:
			fmt.Fprintf(w, " %s", nameAt(cb, int(ins.A)))
		case JMP, JMPFALSE, JMPTRUE:
			fmt.Fprintf(w, " -> %d", ins.A)
		case TRY:
			fmt.Fprintf(w, " catch=%d finally=%d", ins.A, ins.B)
		case MAKEFUNC:
			fmt.Fprintf(w, " %s", fnNameAt(cb, int(ins.A)))
		case MAKECLASS:
			fmt.Fprintf(w, " ctor=%s methods=%d", fnNameAt(cb, int(ins.A)), ins.B)
		case CALL, CALL_NEW, CALL_SUPER, NEWOBJECT, NEWARRAY, PUSHBLOCKENV:
			fmt.Fprintf(w, " %d", ins.A)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	for _, fn := range cb.Functions {
		if err := disassemble(w, fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nameAt(cb *CodeBlock, i int) string {
	if i < 0 || i >= len(cb.Names) {
		return "?"
	}
	return cb.Names[i]
}

func litAt(cb *CodeBlock, i int) interface{} {
	if i < 0 || i >= len(cb.Literals) {
		return "?"
	}
	return cb.Literals[i]
}

func locatorAt(cb *CodeBlock, i int) string {
	if i < 0 || i >= len(cb.Bindings) {
		return "?"
	}
	loc := cb.Bindings[i]
	switch loc.Kind {
	case environment.LocDeclarative:
		return fmt.Sprintf("%s env=%d binding=%d", loc.Name, loc.EnvironmentIndex, loc.BindingIndex)
	case environment.LocGlobal:
		return fmt.Sprintf("%s global", loc.Name)
	case environment.LocMutateImmutable:
		return fmt.Sprintf("%s immutable", loc.Name)
	case environment.LocSilent:
		return fmt.Sprintf("%s silent", loc.Name)
	case environment.LocObject:
		return fmt.Sprintf("%s object=%d", loc.Name, loc.ObjectEnvIndex)
	default:
		return loc.Name
	}
}

func fnNameAt(cb *CodeBlock, i int) string {
	if i < 0 || i >= len(cb.Functions) {
		return "?"
	}
	if n := cb.Functions[i].Name; n != "" {
		return n
	}
	return "<anonymous>"
}
