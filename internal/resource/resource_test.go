package resource_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/resource"
)

type fakeProvider struct {
	tag     string
	matches func(resource.Request) bool
}

func (p *fakeProvider) Match(r resource.Request) bool { return p.matches(r) }
func (p *fakeProvider) Create(r resource.Request) (any, error) { return p.tag, nil }
func (p *fakeProvider) Delete(handle any) error                { return nil }
func (p *fakeProvider) Exists(handle any) (bool, error)        { return true, nil }
func (p *fakeProvider) Resolve(handle any) (any, error)        { return handle, nil }

func TestStackGetScansTopToBottom(t *testing.T) {
	base := &fakeProvider{tag: "base", matches: func(resource.Request) bool { return true }}
	s := resource.NewStack(base)

	p, err := s.Get("anything")
	require.NoError(t, err)
	require.Same(t, base, p)

	top := &fakeProvider{tag: "top", matches: func(resource.Request) bool { return true }}
	s.Push(top)
	p, err = s.Get("anything")
	require.NoError(t, err)
	require.Same(t, top, p)

	s.Pop()
	p, err = s.Get("anything")
	require.NoError(t, err)
	require.Same(t, base, p)
}

func TestStackGetNoMatchErrors(t *testing.T) {
	s := resource.NewStack()
	_, err := s.Get("anything")
	require.Error(t, err)
}

func TestStackCreateForDelegatesToMatchedProvider(t *testing.T) {
	s := resource.NewStack(&fakeProvider{tag: "handle-value", matches: func(resource.Request) bool { return true }})
	handle, err := s.CreateFor("req")
	require.NoError(t, err)
	require.Equal(t, "handle-value", handle)
}
