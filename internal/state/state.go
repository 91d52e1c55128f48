// Package state implements the state layer (spec 4.G): per-node result
// storage ranging from a plain in-memory cell to a filesystem-backed,
// content-addressed cache, plus the scoped namespace that hands out
// exactly one State per node for the lifetime of a run.
package state

import (
	"time"

	"github.com/guludo/yape/internal/logging"
	"github.com/guludo/yape/internal/yerr"
)

var log = logging.Named("state")

// State is the minimal result-storage contract the runner needs. The
// zero-value, in-memory Memory type implements it directly; CachedState
// wraps a filesystem directory and implements the same interface with
// real persistence and staleness checks.
type State interface {
	HasResult() bool
	GetResult() (any, error)
	SetResult(v any) error
	Release()
	Workdir() (string, error)
	IsUpToDate(chk UpToDateCheck) (bool, error)
	// GetTimestamp returns the state's recorded result timestamp, and
	// false if it has none (e.g. a Memory state, which persists nothing).
	GetTimestamp() (time.Time, bool, error)
}

// Memory is the base, in-memory-only State: it never claims to be
// up-to-date, so its node always runs.
type Memory struct {
	hasResult bool
	result    any
	workdir   string
	mkWorkdir func() (string, error)
}

// NewMemory returns a Memory state. mkWorkdir lazily creates a scratch
// directory the first time Workdir is called; it may be nil if the node
// never needs one.
func NewMemory(mkWorkdir func() (string, error)) *Memory {
	return &Memory{mkWorkdir: mkWorkdir}
}

func (s *Memory) HasResult() bool { return s.hasResult }

func (s *Memory) GetResult() (any, error) {
	if !s.hasResult {
		return nil, yerr.NewResolution("state has no result yet")
	}
	return s.result, nil
}

func (s *Memory) SetResult(v any) error {
	s.result = v
	s.hasResult = true
	return nil
}

func (s *Memory) Release() {
	s.hasResult = false
	s.result = nil
}

func (s *Memory) Workdir() (string, error) {
	if s.workdir != "" {
		return s.workdir, nil
	}
	if s.mkWorkdir == nil {
		return "", nil
	}
	dir, err := s.mkWorkdir()
	if err != nil {
		return "", err
	}
	s.workdir = dir
	return dir, nil
}

// IsUpToDate is always false for Memory: there is nothing persisted to
// compare against.
func (s *Memory) IsUpToDate(UpToDateCheck) (bool, error) {
	return false, nil
}

// GetTimestamp never has a recorded timestamp: Memory persists nothing.
func (s *Memory) GetTimestamp() (time.Time, bool, error) {
	return time.Time{}, false, nil
}

// UpToDateCheck carries everything CachedState.IsUpToDate needs from the
// rest of the system, keeping this package free of a dependency on
// graph or resolver: the caller (the runner) resolves paths and looks up
// dependency states itself.
type UpToDateCheck struct {
	// PathIns/PathOuts are the node's declared paths, already resolved to
	// real filesystem locations.
	PathIns  []string
	PathOuts []string

	// IsResource and ResourceExists drive step 4 of the algorithm: when
	// IsResource is true and the state holds a result, ResourceExists(v)
	// is consulted on the stored result (the resource handle).
	IsResource     bool
	ResourceExists func(handle any) (bool, error)

	// Dependencies carries the already-computed up-to-date verdict and
	// timestamp for every direct dependency. The runner computes these in
	// topological order (dependencies before dependents), so by the time
	// it builds this check they are already known -- this state never
	// needs to recursively invoke a dependency's own IsUpToDate.
	Dependencies []DependencyStatus

	// VerifyDescriptor, when true, additionally compares the persisted
	// node descriptor against CurrentDescriptor.
	VerifyDescriptor  bool
	CurrentDescriptor []byte
}

// DependencyStatus summarizes one direct dependency's already-computed
// staleness check, for IsUpToDate step 5.
type DependencyStatus struct {
	UpToDate     bool
	Timestamp    time.Time
	HasTimestamp bool
}
