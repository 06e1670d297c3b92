package vfs

import (
	"sync"

	"github.com/objectfs/memvfs/internal/blockstore"
	"github.com/objectfs/memvfs/internal/logging"
	"github.com/objectfs/memvfs/internal/metrics"
	"github.com/objectfs/memvfs/internal/vfspath"
	"github.com/objectfs/memvfs/pkg/types"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// Filesystem is the in-memory engine: the node table, the directory graph
// reachable from its roots, the path model, the block pool backing
// RegularFile storage, and the attribute service. One filesystem-wide
// read/write lock (tree) serializes every structural mutation; Resolver
// lookups take its read side, and every File Operations Layer verb that
// mutates the tree takes the write side for its entire duration so that
// resolution and parent mutation appear atomic, per spec.md §5.
type Filesystem struct {
	tree   sync.RWMutex
	closed bool

	nodes    *NodeTable
	pool     *blockstore.Pool
	attrs    *AttributeService
	resolver *resolver
	pathType *vfspath.Type
	clock    types.FileTimeSource

	roots       map[string]*node
	workingDir  *node
	workingPath vfspath.Path

	collector *metrics.Collector
	logger    *logging.StructuredLogger
}

// New builds a Filesystem from a resolved Configuration: it allocates a
// root directory per configured root, creates any missing intermediate
// directories of the configured working directory, and wires the block
// pool and attribute providers.
func New(cfg *Configuration) (*Filesystem, error) {
	now := cfg.TimeSource.Now()
	pool := cfg.newBlockPool()
	nodes := NewNodeTable(pool)

	collector, err := metrics.NewCollector(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	if err := collector.RegisterBlockPool(pool); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger, err = logging.NewStructuredLogger(logging.DefaultStructuredLoggerConfig())
		if err != nil {
			return nil, err
		}
	}

	fs := &Filesystem{
		nodes:     nodes,
		pool:      pool,
		attrs:     NewAttributeService(cfg.Providers...),
		pathType:  cfg.PathType,
		clock:     cfg.TimeSource,
		roots:     make(map[string]*node),
		collector: collector,
		logger:    logger,
	}

	for _, rootStr := range cfg.Roots {
		rootPath := cfg.PathType.Parse(rootStr)
		if !rootPath.IsAbsolute() {
			return nil, vfserr.New(vfserr.InvalidArgument, "root must be an absolute path").WithPath(rootStr).WithComponent("filesystem")
		}
		root := fs.newDirectoryNode(now)
		root.dir.setSelfAndParent(cfg.PathType.InternName("."), cfg.PathType.InternName(".."), root.id, root.id)
		fs.nodes.linkAdded(root) // "." referencing itself
		fs.nodes.linkAdded(root) // ".." referencing itself, since root is its own parent
		if err := fs.attrs.SetInitialAttributes(root, nil); err != nil {
			return nil, err
		}
		fs.roots[rootPath.Root()] = root
	}

	fs.resolver = newResolver(fs.nodes, fs.roots, cfg.SymlinkLimit)

	workingPath := cfg.PathType.Parse(cfg.WorkingDir)
	workingDir, err := fs.mkdirAll(workingPath, now)
	if err != nil {
		return nil, err
	}
	fs.workingDir = workingDir
	fs.workingPath = workingPath

	fs.logger.Info("filesystem started", map[string]interface{}{
		"roots":      cfg.Roots,
		"workingDir": cfg.WorkingDir,
		"blockSize":  cfg.BlockSize,
	})

	return fs, nil
}

func (fs *Filesystem) newDirectoryNode(now types.FileTime) *node {
	return fs.nodes.create(KindDirectory, now)
}

// mkdirAll creates every missing directory along path, starting from the
// appropriate root, and returns the final directory node. It is used only
// during Filesystem construction, before the tree lock is exposed to
// concurrent callers.
func (fs *Filesystem) mkdirAll(path vfspath.Path, now types.FileTime) (*node, error) {
	cur, ok := fs.roots[path.Root()]
	if !ok {
		return nil, vfserr.New(vfserr.NotFound, "no such root").WithPath(path.String()).WithComponent("filesystem")
	}

	for i := 0; i < path.NameCount(); i++ {
		name := path.GetName(i)
		if id, found := cur.dir.lookup(name); found {
			next, ok := fs.nodes.get(id)
			if !ok || !next.isDirectory() {
				return nil, vfserr.New(vfserr.NotADirectory, "path component is not a directory").
					WithPath(path.String()).WithComponent("filesystem")
			}
			cur = next
			continue
		}

		child := fs.newDirectoryNode(now)
		child.dir.setSelfAndParent(name, fs.pathType.InternName(".."), child.id, cur.id)
		if err := cur.dir.link(name, child.id); err != nil {
			return nil, err
		}
		fs.nodes.linkAdded(child) // the parent's own entry for child
		fs.nodes.linkAdded(child) // "." referencing itself
		fs.nodes.linkAdded(cur)   // ".." reference from child back to cur
		if err := fs.attrs.SetInitialAttributes(child, nil); err != nil {
			return nil, err
		}
		cur = child
	}

	return cur, nil
}

// Close releases every block still held by live RegularFiles and marks the
// Filesystem closed; every verb and every handle opened before the call
// fails with a Closed error from this point on. Closing twice is a no-op.
func (fs *Filesystem) Close() error {
	fs.tree.Lock()
	defer fs.tree.Unlock()
	if fs.closed {
		return nil
	}
	fs.closed = true
	fs.nodes.closeAll()
	fs.logger.Info("filesystem closed")
	return nil
}

// isClosed reports whether Close has run.
func (fs *Filesystem) isClosed() bool {
	fs.tree.RLock()
	defer fs.tree.RUnlock()
	return fs.closed
}

// WorkingDirectory returns the path of the filesystem's default working
// directory.
func (fs *Filesystem) WorkingDirectory() vfspath.Path {
	return fs.workingPath
}

// Parse parses raw into a Path under this filesystem's configured syntax.
func (fs *Filesystem) Parse(raw string) vfspath.Path {
	return fs.pathType.Parse(raw)
}
