package environment_test

import (
	"testing"

	"github.com/mna/esvm/lang/environment"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	props        map[string]environment.Value
	unscopables  map[string]environment.Value
	hasUnscopable bool
}

func (f *fakeObject) HasProperty(name string) bool {
	_, ok := f.props[name]
	return ok
}

func (f *fakeObject) GetBindingValue(name string) (environment.Value, bool) {
	v, ok := f.props[name]
	return v, ok
}

func (f *fakeObject) SetMutableBinding(name string, value environment.Value, strict bool) error {
	if f.props == nil {
		f.props = make(map[string]environment.Value)
	}
	f.props[name] = value
	return nil
}

func (f *fakeObject) Unscopables() (environment.Bindable, bool) {
	if !f.hasUnscopable {
		return nil, false
	}
	return &fakeObject{props: f.unscopables}, true
}

func TestFindRuntimeBindingFastPath(t *testing.T) {
	cte := environment.NewCompileTimeEnvironment(false)
	idx := cte.DeclareLexical("x", false)
	s := environment.NewStack(cte, nil)

	loc := environment.NewDeclarativeLocator("x", 0, idx)
	resolved := environment.FindRuntimeBinding(s, loc)
	require.Equal(t, loc, resolved, "fast path must leave the locator unchanged")
}

func TestFindRuntimeBindingThroughEvalShadowing(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, nil)

	loc := environment.NewGlobalLocator("x")

	s.PoisonUntilLastFunction()
	evalCte := environment.NewCompileTimeEnvironment(false)
	newIdx := evalCte.DeclareVar("x")
	s.PushDeclarative(evalCte.NumBindings(), evalCte)
	s.PutDeclarativeValue(1, newIdx, 7.0)

	resolved := environment.FindRuntimeBinding(s, loc)
	require.Equal(t, environment.LocGlobal, resolved.Kind, "a non-function poisoned declarative env does not itself retarget the locator")
}

func TestFindRuntimeBindingThroughWith(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, nil)

	obj := &fakeObject{props: map[string]environment.Value{"x": 1.0}}
	s.PushObject(obj)

	loc := environment.NewGlobalLocator("x")
	resolved := environment.FindRuntimeBinding(s, loc)
	require.Equal(t, environment.LocObject, resolved.Kind)

	v, present, err := environment.Read(s, resolved, &fakeObject{})
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, 1.0, v)
}

// `with({x:1}) { with({x:2}) { x } }` must resolve x to the innermost with
// object (2), not the outermost one encountered first by an ascending walk.
func TestFindRuntimeBindingNestedWithInnermostWins(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, nil)

	outer := &fakeObject{props: map[string]environment.Value{"x": 1.0}}
	s.PushObject(outer)
	inner := &fakeObject{props: map[string]environment.Value{"x": 2.0}}
	s.PushObject(inner)

	loc := environment.NewGlobalLocator("x")
	resolved := environment.FindRuntimeBinding(s, loc)
	require.Equal(t, environment.LocObject, resolved.Kind)

	v, present, err := environment.Read(s, resolved, &fakeObject{})
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, 2.0, v, "innermost with must shadow the outer one")
}

func TestFindRuntimeBindingUnscopablesSkipsWithObject(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, "globalThis")

	obj := &fakeObject{
		props:         map[string]environment.Value{"x": 1.0},
		unscopables:   map[string]environment.Value{"x": true},
		hasUnscopable: true,
	}
	s.PushObject(obj)

	loc := environment.NewGlobalLocator("x")
	resolved := environment.FindRuntimeBinding(s, loc)
	require.Equal(t, environment.LocGlobal, resolved.Kind, "x is excluded by @@unscopables so resolution must fall through to global")
}

func TestThrowIfImmutable(t *testing.T) {
	loc := environment.NewMutateImmutableLocator("x")
	require.Error(t, loc.ThrowIfImmutable())

	loc2 := environment.NewDeclarativeLocator("y", 0, 0)
	require.NoError(t, loc2.ThrowIfImmutable())
}

func TestWriteSilentLocatorDiscardsWrite(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, nil)

	loc := environment.NewSilentLocator("x")
	err := environment.Write(s, loc, 1.0, false, &fakeObject{})
	require.NoError(t, err)
}
