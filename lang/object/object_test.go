package object_test

import (
	"testing"

	"github.com/mna/esvm/lang/object"
	"github.com/stretchr/testify/require"
)

func TestPrototypeChainLookup(t *testing.T) {
	proto := object.New(nil)
	proto.DefineOwnProperty("greet", object.DataProperty(object.String("hi")))

	child := object.New(proto)
	v, ok := child.Get("greet")
	require.True(t, ok)
	require.Equal(t, object.String("hi"), v)
}

func TestSetOwnPropertyRejectsNonWritable(t *testing.T) {
	o := object.New(nil)
	o.DefineOwnProperty("x", object.NonEnumerableProperty(object.Number(1)))

	err := o.SetOwnProperty("x", object.Number(2))
	require.Error(t, err)
}

func TestUnscopablesSkipsNonObject(t *testing.T) {
	o := object.New(nil)
	o.DefineOwnSymbolProperty(object.SymUnscopables, object.DataProperty(object.String("not an object")))
	_, ok := o.Unscopables()
	require.False(t, ok)
}

func TestFunctionObjectOrdinaryTemplateCrossLinksPrototype(t *testing.T) {
	callable := &object.NativeFunction{FnName: "f", Fn: func(this object.Value, args []object.Value) (object.Value, error) {
		return object.Undefined{}, nil
	}}
	fn := object.NewFunctionObject(object.TemplateOrdinary, "f", 1, nil, nil, callable)

	proto, ok := fn.Get("prototype")
	require.True(t, ok)
	protoObj, ok := proto.(*object.Object)
	require.True(t, ok)

	ctor, ok := protoObj.Get("constructor")
	require.True(t, ok)
	require.Same(t, fn, ctor)
}

func TestToBoolean(t *testing.T) {
	require.False(t, object.ToBoolean(object.Undefined{}))
	require.False(t, object.ToBoolean(object.Null{}))
	require.False(t, object.ToBoolean(object.String("")))
	require.False(t, object.ToBoolean(object.Number(0)))
	require.True(t, object.ToBoolean(object.String("x")))
	require.True(t, object.ToBoolean(object.New(nil)))
}
