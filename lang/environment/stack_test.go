package environment_test

import (
	"testing"

	"github.com/mna/esvm/lang/environment"
	"github.com/stretchr/testify/require"
)

func TestStackInvariantGlobalNeverPops(t *testing.T) {
	cte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(cte, nil)
	require.Equal(t, 1, s.Len())
	require.Panics(t, func() { s.Pop() })
}

func TestPushDeclarativeInheritsPoison(t *testing.T) {
	cte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(cte, nil)
	s.PoisonUntilLastFunction()

	child := environment.NewCompileTimeEnvironment(false)
	s.PushDeclarative(0, child)
	require.True(t, s.Current().Poisoned())
}

func TestTDZAbsentSlotIsNotPresent(t *testing.T) {
	cte := environment.NewCompileTimeEnvironment(false)
	idx := cte.DeclareLexical("x", false)
	s := environment.NewStack(cte, nil)

	_, present := s.GetDeclarativeValue(0, idx)
	require.False(t, present, "a declared-but-uninitialized slot must read as absent")

	s.PutDeclarativeValue(0, idx, 42.0)
	v, present := s.GetDeclarativeValue(0, idx)
	require.True(t, present)
	require.Equal(t, 42.0, v)
}

func TestPutValueIfUninitializedNeverOverwrites(t *testing.T) {
	cte := environment.NewCompileTimeEnvironment(false)
	idx := cte.DeclareLexical("x", false)
	s := environment.NewStack(cte, nil)

	s.PutDeclarativeValue(0, idx, "first")
	s.PutValueIfUninitialized(0, idx, "second")

	v, _ := s.GetDeclarativeValue(0, idx)
	require.Equal(t, "first", v, "put_value_if_uninitialized must not replace a present value")
}

func TestFunctionEnvironmentPreInitializesVarSlots(t *testing.T) {
	cte := environment.NewCompileTimeEnvironment(true)
	cte.DeclareVar("x")
	letIdx := cte.DeclareLexical("y", false)

	s := environment.NewStack(cte, nil)
	s.PushFunction(cte.NumBindings(), cte, nil, false, nil, nil, false)

	v, present := s.GetDeclarativeValue(1, 0)
	require.True(t, present, "var-declared slots must be pre-initialized to undefined")
	require.Nil(t, v)

	_, present = s.GetDeclarativeValue(1, letIdx)
	require.False(t, present, "let-declared slots must start absent")
}

func TestPoisonUntilLastFunctionStopsAtNearestFunctionEnv(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, nil)

	fnCte := environment.NewCompileTimeEnvironment(true)
	s.PushFunction(0, fnCte, nil, false, nil, nil, false)

	blockCte := environment.NewCompileTimeEnvironment(false)
	s.PushDeclarative(0, blockCte)

	s.PoisonUntilLastFunction()

	require.True(t, s.At(2).Poisoned())
	require.True(t, s.At(1).Poisoned())
	require.False(t, s.At(0).Poisoned(), "poisoning must stop after the nearest function environment")
}

func TestPopToGlobalAndExtendRoundTrip(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, nil)

	childCte := environment.NewCompileTimeEnvironment(false)
	s.PushDeclarative(1, childCte)
	require.Equal(t, 2, s.Len())

	detached := s.PopToGlobal()
	require.Equal(t, 1, s.Len())
	require.Len(t, detached, 1)

	s.Extend(detached)
	require.Equal(t, 2, s.Len())
}

func TestGetThisEnvironmentSkipsLexical(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, "globalThis")

	arrowCte := environment.NewCompileTimeEnvironment(true)
	s.PushFunctionInherit(0, arrowCte)

	this := s.GetThisEnvironment()
	require.NotNil(t, this)
	require.True(t, this.Slots().Global)
}

func TestHasLexBindingUntilFunctionEnvironment(t *testing.T) {
	globalCte := environment.NewCompileTimeEnvironment(false)
	s := environment.NewStack(globalCte, nil)

	fnCte := environment.NewCompileTimeEnvironment(true)
	fnCte.DeclareLexical("y", false)
	s.PushFunction(fnCte.NumBindings(), fnCte, nil, false, nil, nil, false)

	name, found := s.HasLexBindingUntilFunctionEnvironment([]string{"y"})
	require.True(t, found)
	require.Equal(t, "y", name)

	_, found = s.HasLexBindingUntilFunctionEnvironment([]string{"z"})
	require.False(t, found)
}
