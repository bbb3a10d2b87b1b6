package object

import (
	"fmt"
	"math"

	"github.com/mna/esvm/lang/token"
)

// Binary applies the binary operator op to two already-evaluated operands,
// mirroring the teacher's token.Token-keyed dispatch for BINARY opcodes but
// over this engine's Value union and its (simplified) ECMAScript numeric
// and string coercion rules: ToPrimitive's object branch is out of scope
// (see DESIGN.md), so operands are coerced directly from the primitive
// kinds the engine's Value union carries.
func Binary(op token.Token, x, y Value) (Value, error) {
	switch op {
	case token.PLUS:
		if _, ok := x.(String); ok {
			return String(ToStringValue(x)) + String(ToStringValue(y)), nil
		}
		if _, ok := y.(String); ok {
			return String(ToStringValue(x)) + String(ToStringValue(y)), nil
		}
		return Number(toNumber(x) + toNumber(y)), nil
	case token.MINUS:
		return Number(toNumber(x) - toNumber(y)), nil
	case token.STAR:
		return Number(toNumber(x) * toNumber(y)), nil
	case token.SLASH, token.SLASHSLASH:
		return Number(toNumber(x) / toNumber(y)), nil
	case token.PERCENT:
		return Number(math.Mod(toNumber(x), toNumber(y))), nil
	case token.CIRCUMFLEX:
		return Number(float64(int64(toNumber(x)) ^ int64(toNumber(y)))), nil
	case token.AMP:
		return Number(float64(int64(toNumber(x)) & int64(toNumber(y)))), nil
	case token.PIPE:
		return Number(float64(int64(toNumber(x)) | int64(toNumber(y)))), nil
	case token.LTLT:
		return Number(float64(int64(toNumber(x)) << uint(int64(toNumber(y))&31))), nil
	case token.GTGT:
		return Number(float64(int64(toNumber(x)) >> uint(int64(toNumber(y))&31))), nil
	case token.EQEQ:
		return Boolean(looseEquals(x, y)), nil
	case token.NOTEQ:
		return Boolean(!looseEquals(x, y)), nil
	case token.GT:
		return Boolean(toNumber(x) > toNumber(y)), nil
	case token.LT:
		return Boolean(toNumber(x) < toNumber(y)), nil
	case token.GE:
		return Boolean(toNumber(x) >= toNumber(y)), nil
	case token.LE:
		return Boolean(toNumber(x) <= toNumber(y)), nil
	default:
		return nil, fmt.Errorf("TypeError: unsupported binary operator %s", op)
	}
}

// Unary applies the unary operator op to x. token.POUND doubles as a
// typeof-like probe per its definition in the token package.
func Unary(op token.Token, x Value) (Value, error) {
	switch op {
	case token.UPLUS:
		return Number(toNumber(x)), nil
	case token.UMINUS:
		return Number(-toNumber(x)), nil
	case token.UTILDE:
		return Number(float64(^int64(toNumber(x)))), nil
	case token.POUND:
		return String(x.Type()), nil
	default:
		return nil, fmt.Errorf("TypeError: unsupported unary operator %s", op)
	}
}

func toNumber(v Value) float64 {
	switch x := v.(type) {
	case Number:
		return float64(x)
	case Boolean:
		if x {
			return 1
		}
		return 0
	case String:
		var f float64
		if _, err := fmt.Sscanf(string(x), "%g", &f); err != nil {
			return math.NaN()
		}
		return f
	case Null:
		return 0
	default:
		return math.NaN() // Undefined, objects, symbols
	}
}

// ToStringValue applies a simplified ToString used by string
// concatenation; it does not invoke an object's own toString or
// Symbol.toPrimitive (out of scope for this core — see DESIGN.md).
func ToStringValue(v Value) string {
	return v.String()
}

func looseEquals(x, y Value) bool {
	if x == y {
		return true
	}
	switch x.(type) {
	case Undefined, Null:
		switch y.(type) {
		case Undefined, Null:
			return true
		}
		return false
	}
	switch x.(type) {
	case Number, String, Boolean:
		switch y.(type) {
		case Number, String, Boolean:
			return toNumber(x) == toNumber(y)
		}
	}
	return false
}
