package vfs

import (
	"github.com/objectfs/memvfs/internal/vfspath"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// dirEntry is one (Name, NodeID) pair recorded in a Directory's table.
type dirEntry struct {
	name Name
	id   NodeID
}

// directoryData is the payload of a Directory node: an ordered map of
// child entries, addressed by a name's canonical form, plus the ordering
// needed for a stable snapshot. self and parent are recorded as entries
// too, under the reserved canonical keys "." and "..". linked is set once
// setSelfAndParent establishes those sentinels and gates link: entries may
// only be added to a directory that is itself reachable from a root.
type directoryData struct {
	entries map[string]dirEntry
	order   []string // canonical keys, insertion order, excluding "." and ".."
	linked  bool
}

func newDirectoryData() *directoryData {
	return &directoryData{entries: make(map[string]dirEntry)}
}

// link records name -> id, failing AlreadyExists if name is already
// present. "." and ".." are reserved and set directly by the filesystem
// during directory creation, not through link. Failing with Internal if d
// has not itself been linked into the tree yet (see linked).
func (d *directoryData) link(name Name, id NodeID) error {
	if !d.linked {
		return vfserr.New(vfserr.Internal, "cannot link an entry into an unlinked directory").WithComponent("directory").WithOperation("link")
	}
	key := name.Canonical()
	if _, exists := d.entries[key]; exists {
		return vfserr.New(vfserr.AlreadyExists, "entry already exists").WithComponent("directory").WithOperation("link")
	}
	d.entries[key] = dirEntry{name: name, id: id}
	d.order = append(d.order, key)
	return nil
}

// unlink removes name's entry, failing NotFound if absent.
func (d *directoryData) unlink(name Name) (NodeID, error) {
	key := name.Canonical()
	e, exists := d.entries[key]
	if !exists {
		return 0, vfserr.New(vfserr.NotFound, "no such entry").WithComponent("directory").WithOperation("unlink")
	}
	delete(d.entries, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return e.id, nil
}

// lookup finds name's entry.
func (d *directoryData) lookup(name Name) (NodeID, bool) {
	switch name.Canonical() {
	case ".":
		e, ok := d.entries["."]
		return e.id, ok
	case "..":
		e, ok := d.entries[".."]
		return e.id, ok
	}
	e, ok := d.entries[name.Canonical()]
	return e.id, ok
}

// parentID returns the node id recorded in the ".." sentinel entry.
func (d *directoryData) parentID() (NodeID, bool) {
	e, ok := d.entries[".."]
	return e.id, ok
}

// selfID returns the node id recorded in the "." sentinel entry.
func (d *directoryData) selfID() (NodeID, bool) {
	e, ok := d.entries["."]
	return e.id, ok
}

// setSelfAndParent records the "." and ".." sentinel entries and marks the
// directory linked, allowing entries to be added to it via link.
func (d *directoryData) setSelfAndParent(self, parent Name, selfID, parentID NodeID) {
	d.entries["."] = dirEntry{name: self, id: selfID}
	d.entries[".."] = dirEntry{name: parent, id: parentID}
	d.linked = true
}

// setParent updates only the ".." sentinel, used when a directory is moved
// under a new parent.
func (d *directoryData) setParent(parent Name, parentID NodeID) {
	d.entries[".."] = dirEntry{name: parent, id: parentID}
}

// isEmpty reports whether the directory has no entries besides "." and "..".
func (d *directoryData) isEmpty() bool {
	return len(d.order) == 0
}

// DirEntry is a stable, externally-visible (Name, NodeID) pair returned by
// Directory.Snapshot.
type DirEntry struct {
	Name Name
	ID   NodeID
}

// snapshot returns an immutable copy of the directory's entries (excluding
// "." and "..") in insertion order, for iteration under the tree read lock.
func (d *directoryData) snapshot() []DirEntry {
	out := make([]DirEntry, len(d.order))
	for i, key := range d.order {
		e := d.entries[key]
		out[i] = DirEntry{Name: e.name, ID: e.id}
	}
	return out
}

// Name is re-exported from vfspath so callers of the directory API do not
// need a second import for the same concept.
type Name = vfspath.Name
