package vfs

import (
	"github.com/objectfs/memvfs/internal/vfspath"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// LookupOption selects how a terminal symbolic link is handled by lookup.
type LookupOption int

const (
	// FollowLinks follows a terminal symlink to its target (the default).
	FollowLinks LookupOption = iota
	// NoFollowLinks returns the symlink itself when it is the final
	// segment; intermediate links along the path are still followed.
	NoFollowLinks
)

// DefaultSymlinkLimit bounds the number of link traversals lookup performs
// before failing Loop, matching spec.md §3's default of 40.
const DefaultSymlinkLimit = 40

// LookupResult describes the outcome of resolving a path: a found file, a
// found parent with a missing final child (the shape create operations
// need), or neither (the parent itself could not be resolved).
type LookupResult struct {
	Node          *node
	Parent        *node
	FinalName     Name
	Found         bool
	ParentMissing bool
}

// resolver walks paths against a NodeTable and a fixed set of named roots.
type resolver struct {
	nodes        *NodeTable
	roots        map[string]*node
	symlinkLimit int
}

func newResolver(nodes *NodeTable, roots map[string]*node, symlinkLimit int) *resolver {
	if symlinkLimit <= 0 {
		symlinkLimit = DefaultSymlinkLimit
	}
	return &resolver{nodes: nodes, roots: roots, symlinkLimit: symlinkLimit}
}

// lookup resolves path against base (used when path is relative), per
// spec.md §4.1's algorithm. Callers hold the tree read lock (or the write
// lock, for verbs that resolve and then mutate atomically).
func (r *resolver) lookup(base *node, path vfspath.Path, option LookupOption) (LookupResult, error) {
	return r.lookupCounting(base, path, option, 0)
}

func (r *resolver) lookupCounting(base *node, path vfspath.Path, option LookupOption, traversals int) (LookupResult, error) {
	cur := base
	if path.IsAbsolute() {
		root, ok := r.roots[path.Root()]
		if !ok {
			return LookupResult{}, vfserr.New(vfserr.NotFound, "no such root").WithPath(path.String()).WithComponent("resolver")
		}
		cur = root
	}

	var parent *node
	n := path.NameCount()

	for i := 0; i < n; i++ {
		name := path.GetName(i)
		last := i == n-1

		switch name.Canonical() {
		case ".":
			continue
		case "..":
			parentID, ok := cur.dir.parentID()
			if !ok {
				return LookupResult{}, vfserr.New(vfserr.Internal, "directory missing parent entry").WithComponent("resolver")
			}
			parentNode, ok := r.nodes.get(parentID)
			if !ok {
				return LookupResult{}, vfserr.New(vfserr.Internal, "dangling parent reference").WithComponent("resolver")
			}
			parent = cur
			cur = parentNode
			continue
		}

		if !cur.isDirectory() {
			return LookupResult{}, vfserr.New(vfserr.NotADirectory, "path component is not a directory").
				WithPath(path.String()).WithComponent("resolver")
		}

		childID, ok := cur.dir.lookup(name)
		if !ok {
			if last {
				return LookupResult{Parent: cur, FinalName: name, Found: false}, nil
			}
			return LookupResult{ParentMissing: true}, vfserr.New(vfserr.NotFound, "no such file or directory").
				WithPath(path.String()).WithComponent("resolver")
		}

		child, ok := r.nodes.get(childID)
		if !ok {
			return LookupResult{}, vfserr.New(vfserr.Internal, "dangling directory entry").WithComponent("resolver")
		}

		if child.isSymbolicLink() && (!last || option == FollowLinks) {
			if traversals >= r.symlinkLimit {
				return LookupResult{}, vfserr.New(vfserr.Loop, "too many levels of symbolic links").
					WithPath(path.String()).WithComponent("resolver")
			}
			target := child.symlink
			rest := path.Subpath(i+1, n)
			targetResolved := target.Resolve(rest)
			return r.lookupCounting(cur, targetResolved, option, traversals+1)
		}

		parent = cur
		cur = child
	}

	return LookupResult{Node: cur, Parent: parent, FinalName: finalNameOf(path), Found: true}, nil
}

func finalNameOf(path vfspath.Path) Name {
	name, ok := path.GetFileName()
	if !ok {
		return Name{}
	}
	return name
}
