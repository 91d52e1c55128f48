package yapeop_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/yapeop"
)

func TestRunOpData(t *testing.T) {
	v, err := yapeop.RunOp(yapeop.Data{Payload: "hello"}, nil)
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestRunOpValueUnsetIsNil(t *testing.T) {
	v, err := yapeop.RunOp(yapeop.Value{V: yapeop.UNSET}, nil)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestRunOpGetItemSliceAndMap(t *testing.T) {
	v, err := yapeop.RunOp(yapeop.GetItem{Obj: []any{10, 20, 30}, Key: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, 20, v)

	v, err = yapeop.RunOp(yapeop.GetItem{Obj: map[string]any{"a": 1}, Key: "a"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestRunOpGetItemOutOfRange(t *testing.T) {
	_, err := yapeop.RunOp(yapeop.GetItem{Obj: []any{1}, Key: 5}, nil)
	require.Error(t, err)
}

type point struct {
	X, Y int
}

func TestRunOpGetAttrStructField(t *testing.T) {
	v, err := yapeop.RunOp(yapeop.GetAttr{Obj: point{X: 1, Y: 2}, Name: "Y"}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func add(a, b int) int { return a + b }

func TestRunOpCallPositionalArgs(t *testing.T) {
	v, err := yapeop.RunOp(yapeop.Call{Fn: add, Args: []any{2, 3}, Kwargs: yapeop.NewDict()}, nil)
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func divide(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func TestRunOpCallErrorResult(t *testing.T) {
	_, err := yapeop.RunOp(yapeop.Call{Fn: divide, Args: []any{1, 0}, Kwargs: yapeop.NewDict()}, nil)
	require.Error(t, err)
}

func concatKwargs(a string, b string) string { return a + b }

func TestRunOpCallKwargsAppendAfterArgs(t *testing.T) {
	kw := yapeop.NewDict("b", "world")
	v, err := yapeop.RunOp(yapeop.Call{Fn: concatKwargs, Args: []any{"hello-"}, Kwargs: kw}, nil)
	require.NoError(t, err)
	require.Equal(t, "hello-world", v)
}

type fakeProvider struct {
	handle any
	err    error
}

func (p *fakeProvider) CreateFor(request any) (any, error) { return p.handle, p.err }

func TestRunOpResourceUsesProvider(t *testing.T) {
	p := &fakeProvider{handle: "handle-1"}
	v, err := yapeop.RunOp(yapeop.Resource{Request: "req"}, p)
	require.NoError(t, err)
	require.Equal(t, "handle-1", v)
}

func TestRunOpResourceWithoutProviderFails(t *testing.T) {
	_, err := yapeop.RunOp(yapeop.Resource{Request: "req"}, nil)
	require.Error(t, err)
}

func TestDictPreservesInsertionOrderOnUpdate(t *testing.T) {
	d := yapeop.NewDict("a", 1, "b", 2)
	d.Set("a", 99)
	require.Equal(t, []string{"a", "b"}, d.Keys())
	v, ok := d.Get("a")
	require.True(t, ok)
	require.Equal(t, 99, v)
}
