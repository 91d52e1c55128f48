// Package runner implements YapeContext and Runner (spec 4.I): the
// scoped composition of a state namespace and resource provider stack,
// and the single-threaded execution loop that topologically sorts
// targets, resolves and runs each stale node, and releases state
// eagerly once nothing else still needs it.
package runner

import (
	"path/filepath"
	"sync"

	"github.com/guludo/yape/internal/resource"
	"github.com/guludo/yape/internal/state"
	"github.com/guludo/yape/internal/yerr"
)

// Context composes, as a scoped resource, the StateNamespace and
// resource provider stack a run executes against.
type Context struct {
	Namespace *state.Namespace
	Providers *resource.Stack
}

// DefaultContext builds the context Runner.Run creates when none is
// supplied: a CachedStateDB-backed namespace under root/cache and a
// PathProvider-backed resource stack under root/paths, matching the
// ".yape/" layout default (spec 4.I).
func DefaultContext(root string) *Context {
	db := state.NewDB(filepath.Join(root, "cache"))
	return &Context{
		Namespace: state.New(db.Factory()),
		Providers: resource.NewStack(resource.NewPathProvider(filepath.Join(root, "paths"))),
	}
}

var (
	activeMu sync.Mutex
	active   *Context
)

// Enter installs ctx as the single active context, entering its
// namespace too. Entering while a context is already active is a
// yerr.ContextError.
func Enter(ctx *Context) error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		return yerr.NewContext("a YapeContext is already active")
	}
	if err := state.Enter(ctx.Namespace); err != nil {
		return err
	}
	active = ctx
	return nil
}

// Exit unwinds ctx: its namespace is released (which releases every
// State it handed out) and the active slot is cleared if ctx still owns
// it.
func Exit(ctx *Context) {
	activeMu.Lock()
	if active == ctx {
		active = nil
	}
	activeMu.Unlock()
	state.Exit(ctx.Namespace)
}

// Active returns the currently entered context, or nil.
func Active() *Context {
	activeMu.Lock()
	defer activeMu.Unlock()
	return active
}
