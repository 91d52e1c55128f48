package state

import (
	"sync"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yerr"
)

// Factory builds the State for a node the first time the namespace is
// asked for it.
type Factory func(n *graph.Node) (State, error)

// Namespace is a scoped context mapping each node to exactly one State
// for the lifetime of a run (spec 4.G StateNamespace). Only one
// Namespace may be active (entered) at a time.
type Namespace struct {
	factory Factory

	mu     sync.Mutex
	states map[*graph.Node]State

	descMu sync.Mutex
	descs  map[*graph.Node][]byte
}

// New builds a Namespace backed by factory.
func New(factory Factory) *Namespace {
	return &Namespace{
		factory: factory,
		states:  map[*graph.Node]State{},
		descs:   map[*graph.Node][]byte{},
	}
}

// State returns n's State, creating it via the factory on first access.
func (ns *Namespace) State(n *graph.Node) (State, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if s, ok := ns.states[n]; ok {
		return s, nil
	}
	s, err := ns.factory(n)
	if err != nil {
		return nil, err
	}
	ns.states[n] = s
	return s, nil
}

// Descriptor returns n's memoized node descriptor bytes, computing and
// caching them via compute on first access.
func (ns *Namespace) Descriptor(n *graph.Node, compute func() []byte) []byte {
	ns.descMu.Lock()
	defer ns.descMu.Unlock()
	if d, ok := ns.descs[n]; ok {
		return d
	}
	d := compute()
	ns.descs[n] = d
	return d
}

// Release releases every State created so far and clears the descriptor
// cache, matching scope-exit semantics.
func (ns *Namespace) Release() {
	ns.mu.Lock()
	for _, s := range ns.states {
		s.Release()
	}
	ns.states = map[*graph.Node]State{}
	ns.mu.Unlock()

	ns.descMu.Lock()
	ns.descs = map[*graph.Node][]byte{}
	ns.descMu.Unlock()
}

// --- current-namespace slot ---

var (
	currentMu sync.Mutex
	current   *Namespace
)

// Enter installs ns as the single active namespace, failing if one is
// already active.
func Enter(ns *Namespace) error {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current != nil {
		return yerr.NewContext("a state namespace is already active")
	}
	current = ns
	return nil
}

// Exit releases ns and clears the active-namespace slot.
func Exit(ns *Namespace) {
	currentMu.Lock()
	if current == ns {
		current = nil
	}
	currentMu.Unlock()
	ns.Release()
}

// Current returns the active namespace, or nil if none is entered.
func Current() *Namespace {
	currentMu.Lock()
	defer currentMu.Unlock()
	return current
}
