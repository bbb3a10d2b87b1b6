package interner_test

import (
	"testing"

	"github.com/mna/esvm/lang/interner"
	"github.com/stretchr/testify/require"
)

func TestInternDedup(t *testing.T) {
	itn := &interner.Interner{}
	a := itn.Intern("foo")
	b := itn.Intern("bar")
	c := itn.Intern("foo")
	require.Equal(t, a, c)
	require.NotEqual(t, a, b)
	require.Equal(t, "foo", itn.Lookup(a))
	require.Equal(t, "bar", itn.Lookup(b))
	require.Equal(t, 2, itn.Len())
}

func TestNewWellKnown(t *testing.T) {
	itn := interner.New("this", "arguments")
	sym, ok := itn.Resolve("arguments")
	require.True(t, ok)
	require.Equal(t, "arguments", itn.Lookup(sym))

	_, ok = itn.Resolve("unseen")
	require.False(t, ok)
}

func TestLookupInvalidPanics(t *testing.T) {
	itn := &interner.Interner{}
	require.Panics(t, func() { itn.Lookup(interner.Sym(1)) })
}
