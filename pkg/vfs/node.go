package vfs

import (
	"sync"

	"github.com/objectfs/memvfs/internal/blockstore"
	"github.com/objectfs/memvfs/internal/vfspath"
	"github.com/objectfs/memvfs/pkg/types"
)

// NodeID is a node's stable, monotonically-assigned identity, surfaced as
// the basic:fileKey attribute. It never changes across a move and is never
// reused while a live directory entry or open handle references it.
type NodeID uint64

// Kind tags which of the three node variants a node holds.
type Kind int

const (
	KindDirectory Kind = iota
	KindRegularFile
	KindSymbolicLink
)

// node is the tagged-variant File: a shared header (id, link count, times,
// attribute bag) plus exactly one live payload selected by kind.
type node struct {
	id   NodeID
	kind Kind

	// nlinks and open are mutated only under the filesystem's tree lock,
	// except for open's decrement on handle Close, which additionally
	// takes headerMu to finalize a zero-nlinks node without requiring the
	// tree write lock.
	headerMu sync.Mutex
	nlinks   int
	open     int

	ctime types.FileTime
	mtime types.FileTime
	atime types.FileTime

	attrsMu sync.RWMutex
	attrs   map[string]map[string]types.AttrValue // view -> name -> value

	dir     *directoryData
	file    *regularFileData
	symlink vfspath.Path
}

func newNode(id NodeID, kind Kind, now types.FileTime) *node {
	return &node{
		id:    id,
		kind:  kind,
		ctime: now,
		mtime: now,
		atime: now,
		attrs: make(map[string]map[string]types.AttrValue),
	}
}

func (n *node) getAttr(view, name string) (types.AttrValue, bool) {
	n.attrsMu.RLock()
	defer n.attrsMu.RUnlock()
	m, ok := n.attrs[view]
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

func (n *node) setAttr(view, name string, value types.AttrValue) {
	n.attrsMu.Lock()
	defer n.attrsMu.Unlock()
	m, ok := n.attrs[view]
	if !ok {
		m = make(map[string]types.AttrValue)
		n.attrs[view] = m
	}
	m[name] = value
}

// NodeTable owns every live node and hands out identities. Its mutex guards
// only the id table itself (creation and finalization); a node's own
// header/attrs/payload locks guard everything else.
type NodeTable struct {
	mu     sync.Mutex
	nextID NodeID
	nodes  map[NodeID]*node
	pool   *blockstore.Pool
}

// NewNodeTable creates an empty NodeTable backed by pool for RegularFile
// storage.
func NewNodeTable(pool *blockstore.Pool) *NodeTable {
	return &NodeTable{
		nodes: make(map[NodeID]*node),
		pool:  pool,
	}
}

func (t *NodeTable) create(kind Kind, now types.FileTime) *node {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++

	n := newNode(id, kind, now)
	switch kind {
	case KindDirectory:
		n.dir = newDirectoryData()
	case KindRegularFile:
		n.file = newRegularFileData(t.pool)
	}
	t.nodes[id] = n
	return n
}

func (t *NodeTable) get(id NodeID) (*node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[id]
	return n, ok
}

// linkAdded increments a node's link count. Called under the tree write
// lock by Directory.link.
func (t *NodeTable) linkAdded(n *node) {
	n.headerMu.Lock()
	n.nlinks++
	n.headerMu.Unlock()
}

// linkRemoved decrements a node's link count and finalizes the node
// (returning its blocks and dropping it from the table) if no links and no
// open handles remain.
func (t *NodeTable) linkRemoved(n *node) {
	n.headerMu.Lock()
	n.nlinks--
	shouldFinalize := n.nlinks <= 0 && n.open <= 0
	n.headerMu.Unlock()

	if shouldFinalize {
		t.finalize(n)
	}
}

// handleOpened increments a node's open-handle count, keeping it alive
// regardless of unlink.
func (t *NodeTable) handleOpened(n *node) {
	n.headerMu.Lock()
	n.open++
	n.headerMu.Unlock()
}

// handleClosed decrements a node's open-handle count and finalizes it if
// it has also been fully unlinked.
func (t *NodeTable) handleClosed(n *node) {
	n.headerMu.Lock()
	n.open--
	shouldFinalize := n.nlinks <= 0 && n.open <= 0
	n.headerMu.Unlock()

	if shouldFinalize {
		t.finalize(n)
	}
}

func (t *NodeTable) finalize(n *node) {
	if n.kind == KindRegularFile && n.file != nil {
		n.file.releaseAll()
	}

	t.mu.Lock()
	delete(t.nodes, n.id)
	t.mu.Unlock()
}

// closeAll releases every RegularFile's blocks and empties the table. Called
// once, by Filesystem.Close, under the tree write lock.
func (t *NodeTable) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range t.nodes {
		if n.kind == KindRegularFile && n.file != nil {
			n.file.releaseAll()
		}
	}
	t.nodes = make(map[NodeID]*node)
}

func (n *node) isRegularFile() bool   { return n.kind == KindRegularFile }
func (n *node) isDirectory() bool     { return n.kind == KindDirectory }
func (n *node) isSymbolicLink() bool  { return n.kind == KindSymbolicLink }
func (n *node) linkCount() int {
	n.headerMu.Lock()
	defer n.headerMu.Unlock()
	return n.nlinks
}
