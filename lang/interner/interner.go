// Package interner assigns small integer symbols to source-level names
// (identifiers, property keys, string literals) so the compiler and the
// runtime can compare and store names cheaply instead of repeatedly
// hashing or comparing Go strings.
package interner

import "fmt"

// Sym is an interned symbol: a small integer identifying a name. The zero
// value is not a valid symbol.
type Sym uint32

// Interner deduplicates strings into Syms. The zero value is ready to use.
// Interner is not safe for concurrent use; callers that intern across
// goroutines must provide their own synchronization (the runtime is
// single-threaded cooperative, so this is never required in practice).
type Interner struct {
	byName []string
	index  map[string]Sym
}

// New returns an Interner pre-populated with the given names, in order, so
// that well-known names (e.g. "arguments", "this", "@@unscopables") can be
// assigned stable symbols known at compile time.
func New(wellKnown ...string) *Interner {
	itn := &Interner{index: make(map[string]Sym, len(wellKnown))}
	for _, s := range wellKnown {
		itn.Intern(s)
	}
	return itn
}

// Intern returns the Sym for s, assigning a new one if s was not seen
// before.
func (itn *Interner) Intern(s string) Sym {
	if itn.index == nil {
		itn.index = make(map[string]Sym)
	}
	if sym, ok := itn.index[s]; ok {
		return sym
	}
	itn.byName = append(itn.byName, s)
	sym := Sym(len(itn.byName))
	itn.index[s] = sym
	return sym
}

// Lookup returns the string for sym. It panics if sym was never produced by
// this Interner, which is always a compiler or runtime invariant violation
// rather than a condition scripts can trigger.
func (itn *Interner) Lookup(sym Sym) string {
	if sym == 0 || int(sym) > len(itn.byName) {
		panic(fmt.Sprintf("interner: invalid symbol %d", sym))
	}
	return itn.byName[sym-1]
}

// Resolve returns the Sym for s and whether it is already interned, without
// assigning a new one.
func (itn *Interner) Resolve(s string) (Sym, bool) {
	sym, ok := itn.index[s]
	return sym, ok
}

// Len returns the number of distinct names interned so far.
func (itn *Interner) Len() int { return len(itn.byName) }
