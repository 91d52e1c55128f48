package state

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/guludo/yape/internal/yerr"
)

// CachedState is the filesystem-backed State (spec 4.G): result and node
// descriptor live under Path/state, written atomically via a temporary
// directory and rename.
//
//	Path/
//	  workdir/            optional scratch, created lazily
//	  state/               present iff a successful run has been recorded
//	    result.msgpack
//	    node_descriptor.msgpack   only when Descriptor is set
//	  tmp.*/                short-lived during atomic replace
type CachedState struct {
	Path string

	// Descriptor, when non-empty, is written as node_descriptor.msgpack
	// by SetResult and is what IsUpToDate compares chk.CurrentDescriptor
	// against. Leave empty when the owning CachedStateDB already wrote
	// the descriptor itself at the entry directory level (the bucket
	// lookup already verified it, so IsUpToDate does not need to).
	Descriptor []byte

	hasResult bool
	result    any

	timestamp    time.Time
	timestampSet bool

	upToDate    bool
	upToDateSet bool
}

// NewCachedState returns a CachedState rooted at path. The directory
// need not exist yet; SetResult creates it as needed.
func NewCachedState(path string) *CachedState {
	return &CachedState{Path: path}
}

func (s *CachedState) statePath() string  { return filepath.Join(s.Path, "state") }
func (s *CachedState) resultPath() string { return filepath.Join(s.statePath(), "result.msgpack") }
func (s *CachedState) descPath() string   { return filepath.Join(s.statePath(), "node_descriptor.msgpack") }

// SetResult atomically persists v as this state's result: a fresh temp
// directory is populated, then swapped in for state/ via rename, so a
// crash mid-write leaves the previous state (or no state) but never a
// half-written one.
func (s *CachedState) SetResult(v any) error {
	resultBytes, err := msgpack.Marshal(v)
	if err != nil {
		return yerr.NewStateIO("encoding result", err)
	}

	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return yerr.NewStateIO("creating state directory", err)
	}

	tmp, err := os.MkdirTemp(s.Path, "tmp.")
	if err != nil {
		return yerr.NewStateIO("creating temp state directory", err)
	}
	// Best-effort: if the rename below succeeds this is a no-op (the
	// directory no longer exists under its original name).
	defer os.RemoveAll(tmp)

	if err := os.WriteFile(filepath.Join(tmp, "result.msgpack"), resultBytes, 0o644); err != nil {
		return yerr.NewStateIO("writing result", err)
	}
	if len(s.Descriptor) > 0 {
		if err := os.WriteFile(filepath.Join(tmp, "node_descriptor.msgpack"), s.Descriptor, 0o644); err != nil {
			return yerr.NewStateIO("writing node descriptor", err)
		}
	}

	if _, err := os.Stat(s.statePath()); err == nil {
		if err := os.RemoveAll(s.statePath()); err != nil {
			return yerr.NewStateIO("removing previous state", err)
		}
	}
	if err := os.Rename(tmp, s.statePath()); err != nil {
		return yerr.NewStateIO("committing state", err)
	}

	s.result = v
	s.hasResult = true
	s.timestampSet = false
	s.upToDateSet = false
	log.Trace("persisted result", "path", s.Path)
	return nil
}

// HasResult reports whether a result is available, in memory or on disk.
func (s *CachedState) HasResult() bool {
	if s.hasResult {
		return true
	}
	_, err := os.Stat(s.resultPath())
	return err == nil
}

// GetResult returns the in-memory result if present, otherwise loads it
// from disk.
func (s *CachedState) GetResult() (any, error) {
	if s.hasResult {
		return s.result, nil
	}
	b, err := os.ReadFile(s.resultPath())
	if err != nil {
		return nil, yerr.NewStateIO("reading result", err)
	}
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, yerr.NewStateIO("decoding result", err)
	}
	s.result = v
	s.hasResult = true
	return v, nil
}

// GetTimestamp returns the mtime of result.msgpack, cached on first call.
func (s *CachedState) GetTimestamp() (time.Time, bool, error) {
	if s.timestampSet {
		return s.timestamp, true, nil
	}
	info, err := os.Stat(s.resultPath())
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, yerr.NewStateIO("statting result", err)
	}
	s.timestamp = info.ModTime().UTC()
	s.timestampSet = true
	return s.timestamp, true, nil
}

// Release drops the in-memory result and the cached up-to-date verdict.
func (s *CachedState) Release() {
	s.hasResult = false
	s.result = nil
	s.upToDateSet = false
}

// Workdir returns Path/workdir, creating it on first request.
func (s *CachedState) Workdir() (string, error) {
	dir := filepath.Join(s.Path, "workdir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", yerr.NewStateIO("creating workdir", err)
	}
	return dir, nil
}

// IsUpToDate implements the ordered, short-circuiting algorithm from
// spec 4.G, caching the verdict until Release.
func (s *CachedState) IsUpToDate(chk UpToDateCheck) (bool, error) {
	if s.upToDateSet {
		return s.upToDate, nil
	}
	ok, err := s.computeUpToDate(chk)
	if err != nil {
		return false, err
	}
	s.upToDate = ok
	s.upToDateSet = true
	log.Debug("up-to-date check", "path", s.Path, "upToDate", ok)
	return ok, nil
}

func (s *CachedState) computeUpToDate(chk UpToDateCheck) (bool, error) {
	if _, err := os.Stat(s.statePath()); err != nil {
		return false, nil
	}

	ts, ok, err := s.GetTimestamp()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	for _, p := range chk.PathIns {
		fresh, err := pathFresherThan(p, ts)
		if err != nil {
			return false, err
		}
		if !fresh {
			return false, nil
		}
	}
	for _, p := range chk.PathOuts {
		fresh, err := pathFresherThan(p, ts)
		if err != nil {
			return false, err
		}
		if !fresh {
			return false, nil
		}
	}

	if chk.IsResource && s.HasResult() {
		result, err := s.GetResult()
		if err != nil {
			return false, err
		}
		if chk.ResourceExists != nil {
			exists, err := chk.ResourceExists(result)
			if err != nil {
				return false, err
			}
			if !exists {
				return false, nil
			}
		}
	}

	for _, dep := range chk.Dependencies {
		if !dep.UpToDate {
			return false, nil
		}
		if dep.HasTimestamp && dep.Timestamp.After(ts) {
			return false, nil
		}
	}

	if chk.VerifyDescriptor && len(s.Descriptor) > 0 {
		stored, err := os.ReadFile(s.descPath())
		if err != nil {
			return false, yerr.NewStateIO("reading stored node descriptor", err)
		}
		if !bytes.Equal(stored, chk.CurrentDescriptor) {
			return false, nil
		}
	}

	return true, nil
}

func pathFresherThan(p string, ts time.Time) (bool, error) {
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, yerr.NewStateIO(fmt.Sprintf("statting %s", p), err)
	}
	return !info.ModTime().UTC().After(ts), nil
}
