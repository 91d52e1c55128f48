// Package resource implements the resource abstraction (spec 4.H): a
// scoped, stackable set of providers that turn a logical ResourceRequest
// into an opaque, serializable handle, and the built-in PathProvider
// that backs plain filesystem-directory resources.
package resource

import (
	"github.com/guludo/yape/internal/yerr"
)

// Request is an opaque marker naming a kind of resource. Concrete
// request types (like PathRequest) are plain Go values matched by a
// Provider's Match method.
type Request any

// Provider supplies the four resource-lifecycle operations for whatever
// request shapes it recognizes.
type Provider interface {
	// Match reports whether this provider handles request.
	Match(request Request) bool
	// Create allocates and returns an opaque, serializable handle.
	Create(request Request) (handle any, err error)
	// Delete destroys the external artifact referenced by handle.
	Delete(handle any) error
	// Exists is the liveness check CachedState.IsUpToDate uses.
	Exists(handle any) (bool, error)
	// Resolve turns handle into its user-visible form.
	Resolve(handle any) (any, error)
}

// Stack is a scoped, stackable provider list: Get scans from the most
// recently pushed provider to the least recently pushed, returning the
// first match.
type Stack struct {
	providers []Provider
}

// NewStack builds a Stack with base as its initial (bottommost)
// providers, in order.
func NewStack(base ...Provider) *Stack {
	return &Stack{providers: append([]Provider(nil), base...)}
}

// Push adds p on top of the stack; it is consulted before anything
// pushed earlier.
func (s *Stack) Push(p Provider) {
	s.providers = append(s.providers, p)
}

// Pop removes the most recently pushed provider.
func (s *Stack) Pop() {
	if len(s.providers) > 0 {
		s.providers = s.providers[:len(s.providers)-1]
	}
}

// Get returns the first provider (scanning top to bottom) matching
// request.
func (s *Stack) Get(request Request) (Provider, error) {
	for i := len(s.providers) - 1; i >= 0; i-- {
		if s.providers[i].Match(request) {
			return s.providers[i], nil
		}
	}
	return nil, yerr.NewResolution("no provider matches request %#v", request)
}

// CreateFor implements yapeop.ResourceProvider, letting a Stack be
// plugged directly into yapeop.RunOp.
func (s *Stack) CreateFor(request any) (any, error) {
	p, err := s.Get(request)
	if err != nil {
		return nil, err
	}
	return p.Create(request)
}
