package compiler

import "fmt"

// Opcode identifies the operation of one Instruction. Unlike the
// teacher's byte-packed encoding (original lang/compiler/asm.go), esvm
// represents bytecode as a slice of fixed-width Instruction values rather
// than a packed byte stream: the parser/compiler front end is explicitly
// a minimal, test/CLI-facing shim (see SPEC_FULL.md's note on the
// parser/compiler boundary), and a slice of instructions keeps
// CompileProgram and the disassembler straightforward without losing any
// of the CodeBlock/locator contract the Call/Construct Engine is built
// against.
type Opcode uint8

//nolint:revive
const (
	NOP Opcode = iota

	// stack shuffling
	POP
	DUP

	// literals and well-known values
	CONSTANT // A = literal index
	UNDEFINED
	NULLV
	TRUE
	FALSE
	THIS
	NEWTARGET

	// binding access, via CodeBlock.Bindings[A]
	GETBINDING
	SETBINDING

	// operators; the token.Token operator kind is carried in A
	BINARY
	UNARY

	// objects/arrays
	NEWOBJECT // A = prop count; pops 2*A values (key, value pairs) then pushes object
	NEWARRAY  // A = elem count
	GETPROP // A = name index; pops object, pushes value
	SETPROP // A = name index; pops, top of stack first: object, then the value to assign
	GETINDEX  // pops index, then object (top of stack first); pushes value
	// SETINDEX expects, top of stack first: index, object, value; it pops
	// all three and leaves nothing in their place (the caller that wants
	// the assigned value back, e.g. an AssignExpr, keeps its own copy via
	// a preceding DUP).
	SETINDEX

	// super.prop / super[index]: the receiver (this) and [[HomeObject]] come
	// from the current function environment's FunctionSlots, not the
	// operand stack, since HasSuperBinding is an environment-level property
	// rather than an expressible value.
	GETSUPERPROP  // A = name index; pushes value
	SETSUPERPROP  // A = name index; pops the value to assign
	GETSUPERINDEX // pops index; pushes value
	SETSUPERINDEX // pops, top of stack first: index, then the value to assign

	// functions and classes
	MAKEFUNC  // A = index into CodeBlock.Functions
	// MAKECLASS: expects, bottom of stack first, the superclass value
	// (UNDEFINED if the class has no `extends` clause), then B (name,
	// function) pairs (the non-constructor methods, pushed name-first); it
	// pops the B pairs (top of stack first), then the superclass, then
	// constructs the class using CodeBlock.Functions[A] as the constructor
	// body.
	MAKECLASS // A = index into CodeBlock.Functions (constructor); B = method count

	// control flow
	JMP      // A = target instruction index
	JMPFALSE // A = target instruction index; pops condition
	JMPTRUE  // A = target instruction index; pops condition

	// calls
	CALL       // A = arg count
	CALL_NEW   // A = arg count; constructs instead of calling
	CALL_SUPER // A = arg count; calls super() in a derived constructor

	RETURN // pops value, returns it
	THROW  // pops value, throws it

	// YIELD pops the value to yield, suspends the enclosing generator
	// activation, and once resumed pushes the value passed to next().
	// Only valid inside a generator function body (compiler.CodeBlock.
	// IsGenerator); the Call Engine rejects it outside one.
	YIELD

	// environments
	PUSHBLOCKENV // A = index into CodeBlock.CompileEnvironments
	PUSHWITH     // pops object, pushes an Object environment wrapping it
	POPENV

	// exception handling: a structured try marker rather than raw jump
	// targets; the interpreter's run loop keeps a stack of active handlers
	// and unwinds to the innermost one when an error is raised (see
	// machine/machine.go).
	TRY // A = catch target instruction index, or -1 if no catch; B = finally target instruction index, or -1
	ENDTRY

	opcodeMax
)

var opcodeNames = [...]string{
	NOP:          "nop",
	POP:          "pop",
	DUP:          "dup",
	CONSTANT:     "constant",
	UNDEFINED:    "undefined",
	NULLV:        "null",
	TRUE:         "true",
	FALSE:        "false",
	THIS:         "this",
	NEWTARGET:    "new.target",
	GETBINDING:   "getbinding",
	SETBINDING:   "setbinding",
	BINARY:       "binary",
	UNARY:        "unary",
	NEWOBJECT:    "newobject",
	NEWARRAY:     "newarray",
	GETPROP:      "getprop",
	SETPROP:      "setprop",
	GETINDEX:     "getindex",
	SETINDEX:     "setindex",
	GETSUPERPROP:  "getsuperprop",
	SETSUPERPROP:  "setsuperprop",
	GETSUPERINDEX: "getsuperindex",
	SETSUPERINDEX: "setsuperindex",
	MAKEFUNC:     "makefunc",
	MAKECLASS:    "makeclass",
	JMP:          "jmp",
	JMPFALSE:     "jmpfalse",
	JMPTRUE:      "jmptrue",
	CALL:         "call",
	CALL_NEW:     "call_new",
	CALL_SUPER:   "call_super",
	RETURN:       "return",
	THROW:        "throw",
	YIELD:        "yield",
	PUSHBLOCKENV: "pushblockenv",
	PUSHWITH:     "pushwith",
	POPENV:       "popenv",
	TRY:          "try",
	ENDTRY:       "endtry",
}

func (op Opcode) String() string {
	if op < opcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// Instruction is one bytecode instruction: an opcode plus up to two
// generic integer operands, whose meaning depends on the opcode (see the
// comments in the Opcode const block).
type Instruction struct {
	Op   Opcode
	A, B int32
}
