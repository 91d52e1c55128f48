// Package yerr defines the distinct error categories from spec 7, so
// callers can match on category with errors.As. StateIOError and
// ExecutionError also wrap an inner cause, exposed through Unwrap; the
// other categories carry only a message.
package yerr

import "fmt"

// GraphShapeError covers duplicate names, duplicate PathOut declarations,
// slashes in names, and named/path-declaring nodes built outside a graph.
type GraphShapeError struct{ Msg string }

func (e *GraphShapeError) Error() string { return "graph shape: " + e.Msg }

func NewGraphShape(format string, args ...any) error {
	return &GraphShapeError{Msg: fmt.Sprintf(format, args...)}
}

// ArgumentShapeError covers a bare Resource node used as an argument, and
// attribute names starting with "_" on a deferred node.
type ArgumentShapeError struct{ Msg string }

func (e *ArgumentShapeError) Error() string { return "argument shape: " + e.Msg }

func NewArgumentShape(format string, args ...any) error {
	return &ArgumentShapeError{Msg: fmt.Sprintf(format, args...)}
}

// CycleError is raised by topological sort, naming the nodes in the
// cycle in path order.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	s := "circular dependency: "
	for i, n := range e.Path {
		if i > 0 {
			s += " -> "
		}
		s += n
	}
	return s
}

func NewCycle(path []string) error {
	return &CycleError{Path: path}
}

// ResolutionError covers target lookup misses, provider misses for a
// resource, and missing dependency state.
type ResolutionError struct{ Msg string }

func (e *ResolutionError) Error() string { return "resolution: " + e.Msg }

func NewResolution(format string, args ...any) error {
	return &ResolutionError{Msg: fmt.Sprintf(format, args...)}
}

// StateIOError covers failures reading or writing state/result files.
type StateIOError struct {
	Msg string
	Err error
}

func (e *StateIOError) Error() string {
	if e.Err != nil {
		return "state io: " + e.Msg + ": " + e.Err.Error()
	}
	return "state io: " + e.Msg
}

func (e *StateIOError) Unwrap() error { return e.Err }

func NewStateIO(msg string, err error) error {
	return &StateIOError{Msg: msg, Err: err}
}

// ExecutionError wraps any error raised by a user callable or RunOp.
type ExecutionError struct {
	Node string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of %s: %s", e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func NewExecution(node string, err error) error {
	return &ExecutionError{Node: node, Err: err}
}

// ContextError covers attempting to nest YapeContexts or StateNamespaces
// when one is already active.
type ContextError struct{ Msg string }

func (e *ContextError) Error() string { return "context: " + e.Msg }

func NewContext(format string, args ...any) error {
	return &ContextError{Msg: fmt.Sprintf(format, args...)}
}
