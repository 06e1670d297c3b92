package vfs

import (
	"github.com/objectfs/memvfs/internal/vfspath"
	"github.com/objectfs/memvfs/pkg/types"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// CreateOptions carries the overrides createFile/createDirectory/
// createSymbolicLink apply on top of each provider's defaults.
type CreateOptions struct {
	Attributes map[string]types.AttrValue
}

// resolveParent resolves path's parent directory and returns it with the
// final path component, under the tree lock held by the caller. It fails
// NotFound when the parent is missing or is not a directory.
func (fs *Filesystem) resolveParent(path vfspath.Path) (*node, Name, error) {
	base := fs.workingDir
	if path.NameCount() == 0 {
		return nil, Name{}, vfserr.New(vfserr.InvalidArgument, "path has no final component").WithPath(path.String()).WithComponent("filesystem")
	}
	parentPath, _ := path.GetParent()
	result, err := fs.resolver.lookup(base, parentPath, FollowLinks)
	if err != nil {
		return nil, Name{}, err
	}
	if !result.Found || !result.Node.isDirectory() {
		return nil, Name{}, vfserr.New(vfserr.NotFound, "parent directory does not exist").WithPath(path.String()).WithComponent("filesystem")
	}
	name, _ := path.GetFileName()
	return result.Node, name, nil
}

// CreateFile creates a RegularFile at path.
func (fs *Filesystem) CreateFile(path vfspath.Path, opts CreateOptions) (*node, error) {
	return instrumentValue(fs, "createFile", func() (*node, error) {
		fs.tree.Lock()
		defer fs.tree.Unlock()

		parent, name, err := fs.resolveParent(path)
		if err != nil {
			return nil, err
		}
		if _, exists := parent.dir.lookup(name); exists {
			return nil, vfserr.New(vfserr.AlreadyExists, "file already exists").WithPath(path.String()).WithComponent("filesystem")
		}

		child := fs.nodes.create(KindRegularFile, fs.clock.Now())
		if err := fs.attrs.SetInitialAttributes(child, opts.Attributes); err != nil {
			return nil, err
		}
		if err := parent.dir.link(name, child.id); err != nil {
			return nil, err
		}
		fs.nodes.linkAdded(child)
		return child, nil
	})
}

// CreateDirectory creates an empty Directory at path.
func (fs *Filesystem) CreateDirectory(path vfspath.Path, opts CreateOptions) (*node, error) {
	return instrumentValue(fs, "createDirectory", func() (*node, error) {
		fs.tree.Lock()
		defer fs.tree.Unlock()

		parent, name, err := fs.resolveParent(path)
		if err != nil {
			return nil, err
		}
		if _, exists := parent.dir.lookup(name); exists {
			return nil, vfserr.New(vfserr.AlreadyExists, "directory already exists").WithPath(path.String()).WithComponent("filesystem")
		}

		now := fs.clock.Now()
		child := fs.nodes.create(KindDirectory, now)
		child.dir.setSelfAndParent(name, fs.pathType.InternName(".."), child.id, parent.id)
		if err := fs.attrs.SetInitialAttributes(child, opts.Attributes); err != nil {
			return nil, err
		}
		if err := parent.dir.link(name, child.id); err != nil {
			return nil, err
		}
		fs.nodes.linkAdded(child) // parent's entry
		fs.nodes.linkAdded(child) // "." self-reference
		fs.nodes.linkAdded(parent) // ".." reference to parent
		return child, nil
	})
}

// CreateSymbolicLink creates a SymbolicLink at path pointing at target.
// SymbolicLinks require the SYMBOLIC_LINKS feature to be enabled.
func (fs *Filesystem) CreateSymbolicLink(path, target vfspath.Path, opts CreateOptions, symlinksEnabled bool) (*node, error) {
	return instrumentValue(fs, "createSymbolicLink", func() (*node, error) {
		if !symlinksEnabled {
			return nil, vfserr.New(vfserr.Unsupported, "symbolic links are not enabled").WithComponent("filesystem")
		}

		fs.tree.Lock()
		defer fs.tree.Unlock()

		parent, name, err := fs.resolveParent(path)
		if err != nil {
			return nil, err
		}
		if _, exists := parent.dir.lookup(name); exists {
			return nil, vfserr.New(vfserr.AlreadyExists, "entry already exists").WithPath(path.String()).WithComponent("filesystem")
		}

		child := fs.nodes.create(KindSymbolicLink, fs.clock.Now())
		child.symlink = target
		if err := fs.attrs.SetInitialAttributes(child, opts.Attributes); err != nil {
			return nil, err
		}
		if err := parent.dir.link(name, child.id); err != nil {
			return nil, err
		}
		fs.nodes.linkAdded(child)
		return child, nil
	})
}

// CreateLink creates a hard link at link pointing at the RegularFile
// resolved by existing. Hard links require the LINKS feature and refuse to
// target a Directory.
func (fs *Filesystem) CreateLink(link, existing vfspath.Path, linksEnabled bool) error {
	return fs.instrument("createLink", func() error {
		if !linksEnabled {
			return vfserr.New(vfserr.Unsupported, "hard links are not enabled").WithComponent("filesystem")
		}

		fs.tree.Lock()
		defer fs.tree.Unlock()

		target, err := fs.resolver.lookup(fs.workingDir, existing, FollowLinks)
		if err != nil {
			return err
		}
		if !target.Found {
			return vfserr.New(vfserr.NotFound, "link target does not exist").WithPath(existing.String()).WithComponent("filesystem")
		}
		if !target.Node.isRegularFile() {
			return vfserr.New(vfserr.Unsupported, "hard links may only target regular files").WithPath(existing.String()).WithComponent("filesystem")
		}

		parent, name, err := fs.resolveParent(link)
		if err != nil {
			return err
		}
		if _, exists := parent.dir.lookup(name); exists {
			return vfserr.New(vfserr.AlreadyExists, "entry already exists").WithPath(link.String()).WithComponent("filesystem")
		}

		if err := parent.dir.link(name, target.Node.id); err != nil {
			return err
		}
		fs.nodes.linkAdded(target.Node)
		return nil
	})
}

// DeleteOptions controls delete's symlink-following behavior.
type DeleteOptions struct {
	NoFollowLinks bool
}

// Delete removes the entry at path. Non-empty directories are refused.
func (fs *Filesystem) Delete(path vfspath.Path, opts DeleteOptions) error {
	return fs.instrument("delete", func() error {
		fs.tree.Lock()
		defer fs.tree.Unlock()

		option := FollowLinks
		if opts.NoFollowLinks {
			option = NoFollowLinks
		}

		parentPath, _ := path.GetParent()
		parentResult, err := fs.resolver.lookup(fs.workingDir, parentPath, FollowLinks)
		if err != nil {
			return err
		}
		if !parentResult.Found || !parentResult.Node.isDirectory() {
			return vfserr.New(vfserr.NotFound, "no such file or directory").WithPath(path.String()).WithComponent("filesystem")
		}
		name, _ := path.GetFileName()

		result, err := fs.resolver.lookup(fs.workingDir, path, option)
		if err != nil {
			return err
		}
		if !result.Found {
			return vfserr.New(vfserr.NotFound, "no such file or directory").WithPath(path.String()).WithComponent("filesystem")
		}
		if result.Node.isDirectory() && !result.Node.dir.isEmpty() {
			return vfserr.New(vfserr.DirectoryNotEmpty, "directory is not empty").WithPath(path.String()).WithComponent("filesystem")
		}

		if _, err := parentResult.Node.dir.unlink(name); err != nil {
			return err
		}
		if result.Node.isDirectory() {
			// the removed directory's own "." and ".." links, and the
			// parent's ".." reference it held, go away with it
			fs.nodes.linkRemoved(result.Node)
			fs.nodes.linkRemoved(parentResult.Node)
		}
		fs.nodes.linkRemoved(result.Node)
		return nil
	})
}

// CopyOptions controls copy's overwrite and attribute-preservation
// behavior.
type CopyOptions struct {
	NoFollowLinks   bool
	ReplaceExisting bool
	CopyAttributes  bool
}

// Copy copies the file or directory at src to dst.
func (fs *Filesystem) Copy(src, dst vfspath.Path, opts CopyOptions) error {
	return fs.instrument("copy", func() error {
		fs.tree.Lock()
		defer fs.tree.Unlock()

		option := FollowLinks
		if opts.NoFollowLinks {
			option = NoFollowLinks
		}
		srcResult, err := fs.resolver.lookup(fs.workingDir, src, option)
		if err != nil {
			return err
		}
		if !srcResult.Found {
			return vfserr.New(vfserr.NotFound, "source does not exist").WithPath(src.String()).WithComponent("filesystem")
		}

		dstParent, dstName, err := fs.resolveParent(dst)
		if err != nil {
			return err
		}

		if existingID, exists := dstParent.dir.lookup(dstName); exists {
			existing, _ := fs.nodes.get(existingID)
			if !opts.ReplaceExisting {
				return vfserr.New(vfserr.AlreadyExists, "destination already exists").WithPath(dst.String()).WithComponent("filesystem")
			}
			if srcResult.Node.isDirectory() != existing.isDirectory() {
				return vfserr.New(vfserr.InvalidArgument, "cannot replace a directory with a file or vice versa").WithPath(dst.String()).WithComponent("filesystem")
			}
			if existing.isDirectory() && !existing.dir.isEmpty() {
				return vfserr.New(vfserr.DirectoryNotEmpty, "destination directory is not empty").WithPath(dst.String()).WithComponent("filesystem")
			}
			if _, err := dstParent.dir.unlink(dstName); err != nil {
				return err
			}
			fs.nodes.linkRemoved(existing)
		}

		now := fs.clock.Now()
		var newNode *node
		switch {
		case srcResult.Node.isDirectory():
			newNode = fs.nodes.create(KindDirectory, now)
			newNode.dir.setSelfAndParent(dstName, fs.pathType.InternName(".."), newNode.id, dstParent.id)
			fs.nodes.linkAdded(newNode)
			fs.nodes.linkAdded(newNode)
			fs.nodes.linkAdded(dstParent)
		case srcResult.Node.isRegularFile():
			newNode = fs.nodes.create(KindRegularFile, now)
			if _, err := srcResult.Node.file.TransferTo(0, newNode.file, 0, srcResult.Node.file.Size()); err != nil {
				return err
			}
			fs.nodes.linkAdded(newNode)
		default:
			newNode = fs.nodes.create(KindSymbolicLink, now)
			newNode.symlink = srcResult.Node.symlink
			fs.nodes.linkAdded(newNode)
		}

		if opts.CopyAttributes {
			for _, view := range fs.attrs.EnabledViews() {
				p, ok := fs.attrs.providerFor(view)
				if !ok {
					continue
				}
				_, attrs := p.Get(srcResult.Node)
				for name, value := range attrs {
					_ = fs.attrs.SetAttribute(newNode, view+":"+name, value, true)
				}
			}
		} else if err := fs.attrs.SetInitialAttributes(newNode, nil); err != nil {
			return err
		}

		return dstParent.dir.link(dstName, newNode.id)
	})
}

// MoveOptions controls move's overwrite behavior; cross-filesystem moves
// are always refused since this engine holds exactly one tree.
type MoveOptions struct {
	ReplaceExisting bool
}

// Move relocates the entry at src to dst, atomically with respect to the
// tree lock. Moving a non-empty directory with open handles inside it is
// refused as an atomic-move violation.
func (fs *Filesystem) Move(src, dst vfspath.Path, opts MoveOptions) error {
	return fs.instrument("move", func() error {
		fs.tree.Lock()
		defer fs.tree.Unlock()

		srcParentPath, _ := src.GetParent()
		srcParentResult, err := fs.resolver.lookup(fs.workingDir, srcParentPath, FollowLinks)
		if err != nil {
			return err
		}
		if !srcParentResult.Found || !srcParentResult.Node.isDirectory() {
			return vfserr.New(vfserr.NotFound, "source parent does not exist").WithPath(src.String()).WithComponent("filesystem")
		}
		srcName, _ := src.GetFileName()
		srcID, exists := srcParentResult.Node.dir.lookup(srcName)
		if !exists {
			return vfserr.New(vfserr.NotFound, "source does not exist").WithPath(src.String()).WithComponent("filesystem")
		}
		srcNode, ok := fs.nodes.get(srcID)
		if !ok {
			return vfserr.New(vfserr.Internal, "dangling directory entry").WithComponent("filesystem")
		}

		var openInSubtree func(n *node) bool
		openInSubtree = func(n *node) bool {
			if n.headerOpenCount() > 0 {
				return true
			}
			if n.isDirectory() {
				for _, e := range n.dir.snapshot() {
					if c, ok := fs.nodes.get(e.ID); ok && openInSubtree(c) {
						return true
					}
				}
			}
			return false
		}
		if srcNode.isDirectory() && !srcNode.dir.isEmpty() && openInSubtree(srcNode) {
			return vfserr.New(vfserr.AtomicViolation, "cannot move a directory with open handles in its subtree").
				WithPath(src.String()).WithComponent("filesystem")
		}

		dstParent, dstName, err := fs.resolveParent(dst)
		if err != nil {
			return err
		}

		if existingID, exists := dstParent.dir.lookup(dstName); exists {
			if !opts.ReplaceExisting {
				return vfserr.New(vfserr.AlreadyExists, "destination already exists").WithPath(dst.String()).WithComponent("filesystem")
			}
			existing, _ := fs.nodes.get(existingID)
			if existing.isDirectory() && !existing.dir.isEmpty() {
				return vfserr.New(vfserr.DirectoryNotEmpty, "destination directory is not empty").WithPath(dst.String()).WithComponent("filesystem")
			}
			if _, err := dstParent.dir.unlink(dstName); err != nil {
				return err
			}
			fs.nodes.linkRemoved(existing)
		}

		if _, err := srcParentResult.Node.dir.unlink(srcName); err != nil {
			return err
		}
		if err := dstParent.dir.link(dstName, srcNode.id); err != nil {
			// put it back; best-effort restoration of the invariant that
			// a failed move leaves the tree unchanged
			_ = srcParentResult.Node.dir.link(srcName, srcNode.id)
			return err
		}

		if srcNode.isDirectory() {
			srcNode.dir.setParent(fs.pathType.InternName(".."), dstParent.id)
			fs.nodes.linkRemoved(srcParentResult.Node)
			fs.nodes.linkAdded(dstParent)
		}

		return nil
	})
}

// List returns a snapshot of dir's child entries.
func (fs *Filesystem) List(path vfspath.Path) ([]DirEntry, error) {
	return instrumentValue(fs, "list", func() ([]DirEntry, error) {
		fs.tree.RLock()
		defer fs.tree.RUnlock()

		result, err := fs.resolver.lookup(fs.workingDir, path, FollowLinks)
		if err != nil {
			return nil, err
		}
		if !result.Found {
			return nil, vfserr.New(vfserr.NotFound, "no such file or directory").WithPath(path.String()).WithComponent("filesystem")
		}
		if !result.Node.isDirectory() {
			return nil, vfserr.New(vfserr.NotADirectory, "not a directory").WithPath(path.String()).WithComponent("filesystem")
		}
		return result.Node.dir.snapshot(), nil
	})
}

// Lookup resolves path under the tree read lock and returns its node,
// without mutating anything.
func (fs *Filesystem) Lookup(path vfspath.Path, option LookupOption) (*node, error) {
	return instrumentValue(fs, "lookup", func() (*node, error) {
		fs.tree.RLock()
		defer fs.tree.RUnlock()

		result, err := fs.resolver.lookup(fs.workingDir, path, option)
		if err != nil {
			return nil, err
		}
		if !result.Found {
			return nil, vfserr.New(vfserr.NotFound, "no such file or directory").WithPath(path.String()).WithComponent("filesystem")
		}
		return result.Node, nil
	})
}

// ReadAttributes reads the attributes named by spec from the file at path.
func (fs *Filesystem) ReadAttributes(path vfspath.Path, spec string, option LookupOption) (map[string]types.AttrValue, error) {
	return instrumentValue(fs, "readAttributes", func() (map[string]types.AttrValue, error) {
		fs.tree.RLock()
		defer fs.tree.RUnlock()

		result, err := fs.resolver.lookup(fs.workingDir, path, option)
		if err != nil {
			return nil, err
		}
		if !result.Found {
			return nil, vfserr.New(vfserr.NotFound, "no such file or directory").WithPath(path.String()).WithComponent("filesystem")
		}
		return fs.attrs.ReadAttributes(result.Node, spec)
	})
}

// SetAttributeAt writes a single attribute on the file at path.
func (fs *Filesystem) SetAttributeAt(path vfspath.Path, spec string, value types.AttrValue, option LookupOption) error {
	return fs.instrument("setAttribute", func() error {
		fs.tree.Lock()
		defer fs.tree.Unlock()

		result, err := fs.resolver.lookup(fs.workingDir, path, option)
		if err != nil {
			return err
		}
		if !result.Found {
			return vfserr.New(vfserr.NotFound, "no such file or directory").WithPath(path.String()).WithComponent("filesystem")
		}
		return fs.attrs.SetAttribute(result.Node, spec, value, false)
	})
}

func (n *node) headerOpenCount() int {
	n.headerMu.Lock()
	defer n.headerMu.Unlock()
	return n.open
}
