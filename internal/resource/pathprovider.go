package resource

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/guludo/yape/internal/yerr"
)

// PathRequest is the request type answered by PathProvider: a node
// wanting a private, UUID-named directory to read and write.
type PathRequest struct{}

// PathHandle is the serializable handle PathProvider hands back: the
// UUID naming the entry directory under the provider's base.
type PathHandle struct {
	UUID string
}

// PathProvider answers PathRequest by allocating a UUID-named directory
// under Base, laid out as base/entries/<uuid>/resource. Create makes the
// container directory (not the "resource" child itself, which is left
// for the node's own callable to populate); Resolve returns the
// "resource" child path.
type PathProvider struct {
	Base string
}

// NewPathProvider returns a PathProvider rooted at base.
func NewPathProvider(base string) *PathProvider {
	return &PathProvider{Base: base}
}

func (p *PathProvider) Match(request Request) bool {
	_, ok := request.(PathRequest)
	return ok
}

func (p *PathProvider) entryDir(h PathHandle) string {
	return filepath.Join(p.Base, "entries", h.UUID)
}

func (p *PathProvider) Create(request Request) (any, error) {
	if _, ok := request.(PathRequest); !ok {
		return nil, yerr.NewResolution("PathProvider cannot handle request of type %T", request)
	}
	h := PathHandle{UUID: uuid.NewString()}
	if err := os.MkdirAll(p.entryDir(h), 0o755); err != nil {
		return nil, yerr.NewStateIO("creating resource entry directory", err)
	}
	return h, nil
}

func (p *PathProvider) Delete(handle any) error {
	h, ok := handle.(PathHandle)
	if !ok {
		return yerr.NewResolution("PathProvider cannot delete handle of type %T", handle)
	}
	return os.RemoveAll(p.entryDir(h))
}

func (p *PathProvider) Exists(handle any) (bool, error) {
	h, ok := handle.(PathHandle)
	if !ok {
		return false, yerr.NewResolution("PathProvider cannot check handle of type %T", handle)
	}
	_, err := os.Stat(p.entryDir(h))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, yerr.NewStateIO("checking resource entry directory", err)
	}
	return true, nil
}

func (p *PathProvider) Resolve(handle any) (any, error) {
	h, ok := handle.(PathHandle)
	if !ok {
		return nil, yerr.NewResolution("PathProvider cannot resolve handle of type %T", handle)
	}
	return filepath.Join(p.entryDir(h), "resource"), nil
}
