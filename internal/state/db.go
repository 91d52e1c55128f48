package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/guludo/yape/internal/descriptor"
	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yerr"
)

// DB is CachedStateDB (spec 4.G): a content-addressed bucket layout
// under Root, keyed by the sha256 hash of a node's serialized
// descriptor, with one UUID-named entry per bucket (or, in Paranoid
// mode, as many as collide on the same hash).
//
//	Root/
//	  entries/
//	    <sha256-hash>/
//	      <entry-uuid>/
//	        node_descriptor.msgpack
//	        statedir/...
type DB struct {
	Root string

	// Paranoid, when true, disambiguates hash collisions by loading and
	// comparing every entry's node_descriptor.msgpack byte-for-byte
	// instead of assuming the bucket holds exactly one entry.
	Paranoid bool
}

// NewDB returns a DB rooted at root.
func NewDB(root string) *DB {
	return &DB{Root: root}
}

// Factory returns a state.Factory backed by db. graph.NodeDescriptor
// already memoizes on the node itself (true passed for cache), so no
// further memoization is needed here.
func (db *DB) Factory() Factory {
	return func(n *graph.Node) (State, error) {
		desc := descriptor.Encode(graph.NodeDescriptor(n, true))
		return db.stateFor(desc)
	}
}

func (db *DB) bucketDir(hash string) string {
	return filepath.Join(db.Root, "entries", hash)
}

// hashBytes hashes an already-encoded descriptor, equivalent to
// descriptor.Hash(d) for the Descriptor d that produced these bytes --
// stateFor only ever has the encoded form on hand (Factory encodes it
// from graph.NodeDescriptor), so it hashes directly rather than
// re-decoding back into a Descriptor.
func hashBytes(desc []byte) string {
	sum := sha256.Sum256(desc)
	return hex.EncodeToString(sum[:])
}

func (db *DB) stateFor(desc []byte) (State, error) {
	hash := hashBytes(desc)
	bucket := db.bucketDir(hash)

	entries, err := os.ReadDir(bucket)
	if err != nil && !os.IsNotExist(err) {
		return nil, yerr.NewStateIO("listing cache bucket", err)
	}

	var entryDir string
	if len(entries) > 0 {
		if db.Paranoid {
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				candidate := filepath.Join(bucket, e.Name())
				stored, err := os.ReadFile(filepath.Join(candidate, "node_descriptor.msgpack"))
				if err != nil {
					return nil, yerr.NewStateIO("reading candidate node descriptor", err)
				}
				if bytes.Equal(stored, desc) {
					entryDir = candidate
					break
				}
			}
		} else {
			dirs := make([]os.DirEntry, 0, len(entries))
			for _, e := range entries {
				if e.IsDir() {
					dirs = append(dirs, e)
				}
			}
			if len(dirs) > 1 {
				return nil, yerr.NewStateIO("cache bucket has more than one entry", nil)
			}
			if len(dirs) == 1 {
				entryDir = filepath.Join(bucket, dirs[0].Name())
			}
		}
	}

	if entryDir == "" {
		entryDir = filepath.Join(bucket, uuid.NewString())
		if err := os.MkdirAll(entryDir, 0o755); err != nil {
			return nil, yerr.NewStateIO("creating cache entry", err)
		}
		if err := os.WriteFile(filepath.Join(entryDir, "node_descriptor.msgpack"), desc, 0o644); err != nil {
			return nil, yerr.NewStateIO("writing cache entry descriptor", err)
		}
	}

	return NewCachedState(filepath.Join(entryDir, "statedir")), nil
}

// GC removes every cache bucket (with all of its entries) whose node
// descriptor hash is not present in liveHashes (the supplemented feature
// from spec.md's Open Question about reclaiming entries superseded by
// graph evolution: neither set_result nor is_up_to_date ever delete an
// old bucket, so entries accumulate without this). It returns the number
// of buckets removed.
func (db *DB) GC(liveHashes map[string]bool) (removed int, err error) {
	entriesDir := filepath.Join(db.Root, "entries")
	buckets, err := os.ReadDir(entriesDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, yerr.NewStateIO("listing cache entries", err)
	}

	for _, b := range buckets {
		if !b.IsDir() {
			continue
		}
		if liveHashes[b.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(entriesDir, b.Name())); err != nil {
			return removed, yerr.NewStateIO("removing stale cache bucket", err)
		}
		removed++
	}
	return removed, nil
}
