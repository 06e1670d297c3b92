package fuse

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/memvfs/pkg/types"
	"github.com/objectfs/memvfs/pkg/vfs"
)

// safeInt64ToUint64 safely converts int64 to uint64, preventing negative values
func safeInt64ToUint64(i int64) uint64 {
	if i < 0 {
		return 0
	}
	return uint64(i)
}

// safeIntToUint32 safely converts int to uint32, preventing overflow
func safeIntToUint32(i int) uint32 {
	if i < 0 {
		return 0
	}
	if i > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(i)
}

// FileSystem implements the FUSE filesystem interface over a vfs.Engine.
// It holds no data of its own; every Lookup, Readdir, Open, Read and Write
// is a direct call through the engine's path-string verb table.
type FileSystem struct {
	fs.Inode

	engine vfs.Engine
	config *Config

	stats *Stats
}

// Config represents FUSE filesystem configuration
type Config struct {
	// Mount options
	MountPoint string `yaml:"mount_point"`
	ReadOnly   bool   `yaml:"read_only"`
	AllowOther bool   `yaml:"allow_other"`

	// FUSE options
	DirectIO  bool   `yaml:"direct_io"`
	KeepCache bool   `yaml:"keep_cache"`
	BigWrites bool   `yaml:"big_writes"`
	MaxRead   uint32 `yaml:"max_read"`
	MaxWrite  uint32 `yaml:"max_write"`

	// Filesystem behavior
	DefaultUID  uint32        `yaml:"default_uid"`
	DefaultGID  uint32        `yaml:"default_gid"`
	DefaultMode uint32        `yaml:"default_mode"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// Stats tracks filesystem operation statistics
type Stats struct {
	mu sync.RWMutex

	Lookups int64 `json:"lookups"`
	Opens   int64 `json:"opens"`
	Reads   int64 `json:"reads"`
	Writes  int64 `json:"writes"`
	Creates int64 `json:"creates"`
	Deletes int64 `json:"deletes"`

	BytesRead    int64 `json:"bytes_read"`
	BytesWritten int64 `json:"bytes_written"`

	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	Errors int64 `json:"errors"`
}

// NewFileSystem creates a new FUSE filesystem instance fronting engine.
func NewFileSystem(engine vfs.Engine, config *Config) *FileSystem {
	if config == nil {
		config = &Config{
			DefaultUID:  1000,
			DefaultGID:  1000,
			DefaultMode: 0644,
			CacheTTL:    5 * time.Minute,
		}
	}

	return &FileSystem{
		engine: engine,
		config: config,
		stats:  &Stats{},
	}
}

// Root returns the root inode
func (f *FileSystem) Root() fs.InodeEmbedder {
	return &DirectoryNode{
		fs:   f,
		path: "/",
	}
}

// GetStats returns current filesystem statistics
func (f *FileSystem) GetStats() *Stats {
	f.stats.mu.RLock()
	defer f.stats.mu.RUnlock()

	return &Stats{
		Lookups:      f.stats.Lookups,
		Opens:        f.stats.Opens,
		Reads:        f.stats.Reads,
		Writes:       f.stats.Writes,
		Creates:      f.stats.Creates,
		Deletes:      f.stats.Deletes,
		BytesRead:    f.stats.BytesRead,
		BytesWritten: f.stats.BytesWritten,
		Errors:       f.stats.Errors,
	}
}

// attrBool reads a single boolean attribute, defaulting to false on error.
func attrBool(f *FileSystem, path, spec string) bool {
	v, err := f.engine.GetAttribute(path, spec)
	if err != nil || v == nil {
		return false
	}
	b, ok := v.(types.BoolValue)
	return ok && bool(b)
}

// attrSize reads basic:size, defaulting to 0 on error.
func attrSize(f *FileSystem, path string) int64 {
	v, err := f.engine.GetAttribute(path, "basic:size")
	if err != nil || v == nil {
		return 0
	}
	n, ok := v.(types.Int64Value)
	if !ok {
		return 0
	}
	return int64(n)
}

// attrModTime reads basic:lastModifiedTime as a Unix timestamp.
func attrModTime(f *FileSystem, path string) int64 {
	v, err := f.engine.GetAttribute(path, "basic:lastModifiedTime")
	if err != nil || v == nil {
		return 0
	}
	t, ok := v.(types.FileTimeValue)
	if !ok {
		return 0
	}
	return int64(t) / int64(time.Second)
}

// DirectoryNode represents a directory in the filesystem
type DirectoryNode struct {
	fs.Inode
	fs   *FileSystem
	path string
}

// Lookup looks up a child node by name
func (n *DirectoryNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.fs.stats.mu.Lock()
	n.fs.stats.Lookups++
	n.fs.stats.mu.Unlock()

	childPath := n.joinPath(name)

	isDir, err := n.fs.engine.GetAttribute(childPath, "basic:isDirectory")
	if err != nil {
		n.fs.stats.mu.Lock()
		n.fs.stats.Errors++
		n.fs.stats.mu.Unlock()
		return nil, syscall.ENOENT
	}

	out.Mtime = safeInt64ToUint64(attrModTime(n.fs, childPath))

	if b, ok := isDir.(types.BoolValue); ok && bool(b) {
		return n.createDirectoryNode(name, childPath), 0
	}
	out.Size = safeInt64ToUint64(attrSize(n.fs, childPath))
	return n.createChildNode(name, childPath), 0
}

// Readdir reads directory contents
func (n *DirectoryNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	children, err := n.fs.engine.ReadDir(n.path)
	if err != nil {
		n.fs.stats.mu.Lock()
		n.fs.stats.Errors++
		n.fs.stats.mu.Unlock()

		log.Printf("Readdir failed for %s: %v", n.path, err)
		return nil, syscall.EIO
	}

	entries := make([]fuse.DirEntry, 0, len(children))
	for _, child := range children {
		name := child.Name.Display()
		mode := uint32(fuse.S_IFREG)
		if attrBool(n.fs, n.joinPath(name), "basic:isDirectory") {
			mode = fuse.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}

	return fs.NewListDirStream(entries), 0
}

// Mkdir creates a new directory
func (n *DirectoryNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if n.fs.config.ReadOnly {
		return nil, syscall.EROFS
	}

	childPath := n.joinPath(name)
	if err := n.fs.engine.Mkdir(childPath); err != nil {
		n.fs.stats.mu.Lock()
		n.fs.stats.Errors++
		n.fs.stats.mu.Unlock()

		log.Printf("Mkdir failed for %s: %v", childPath, err)
		return nil, syscall.EIO
	}

	return n.createDirectoryNode(name, childPath), 0
}

// Create creates a new file
func (n *DirectoryNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (node *fs.Inode, fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	if n.fs.config.ReadOnly {
		return nil, nil, 0, syscall.EROFS
	}

	childPath := n.joinPath(name)

	handle, err := n.fs.engine.Create(childPath)
	if err != nil {
		n.fs.stats.mu.Lock()
		n.fs.stats.Errors++
		n.fs.stats.mu.Unlock()

		log.Printf("Create failed for %s: %v", childPath, err)
		return nil, nil, 0, syscall.EIO
	}

	n.fs.stats.mu.Lock()
	n.fs.stats.Creates++
	n.fs.stats.mu.Unlock()

	fileNode := &FileNode{fs: n.fs, path: childPath}
	node = n.NewInode(ctx, fileNode, fs.StableAttr{Mode: fuse.S_IFREG})

	return node, &FileHandle{fs: n.fs, handle: handle, path: childPath}, 0, 0
}

// Unlink removes a file
func (n *DirectoryNode) Unlink(ctx context.Context, name string) syscall.Errno {
	if n.fs.config.ReadOnly {
		return syscall.EROFS
	}
	if err := n.fs.engine.Remove(n.joinPath(name)); err != nil {
		n.fs.stats.mu.Lock()
		n.fs.stats.Errors++
		n.fs.stats.mu.Unlock()
		return syscall.EIO
	}
	n.fs.stats.mu.Lock()
	n.fs.stats.Deletes++
	n.fs.stats.mu.Unlock()
	return 0
}

// Rmdir removes a directory
func (n *DirectoryNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return n.Unlink(ctx, name)
}

// Rename moves a directory entry
func (n *DirectoryNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if n.fs.config.ReadOnly {
		return syscall.EROFS
	}
	dst, ok := newParent.(*DirectoryNode)
	if !ok {
		return syscall.EINVAL
	}
	if err := n.fs.engine.Rename(n.joinPath(name), dst.joinPath(newName)); err != nil {
		n.fs.stats.mu.Lock()
		n.fs.stats.Errors++
		n.fs.stats.mu.Unlock()
		return syscall.EIO
	}
	return 0
}

// FileNode represents a file in the filesystem
type FileNode struct {
	fs.Inode
	fs   *FileSystem
	path string
}

// Open opens a file
func (f *FileNode) Open(ctx context.Context, flags uint32) (fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	f.fs.stats.mu.Lock()
	f.fs.stats.Opens++
	f.fs.stats.mu.Unlock()

	if f.fs.config.ReadOnly && (flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_CREAT|syscall.O_TRUNC) != 0) {
		return nil, 0, syscall.EROFS
	}

	handle, err := f.fs.engine.Open(f.path)
	if err != nil {
		f.fs.stats.mu.Lock()
		f.fs.stats.Errors++
		f.fs.stats.mu.Unlock()
		return nil, 0, syscall.EIO
	}

	return &FileHandle{fs: f.fs, handle: handle, path: f.path}, 0, 0
}

// Getattr gets file attributes
func (f *FileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = f.fs.config.DefaultMode
	out.Size = safeInt64ToUint64(attrSize(f.fs, f.path))
	out.Uid = f.fs.config.DefaultUID
	out.Gid = f.fs.config.DefaultGID

	mtime := safeInt64ToUint64(attrModTime(f.fs, f.path))
	out.Mtime = mtime
	out.Atime = mtime
	out.Ctime = mtime

	return 0
}

// FileHandle represents an open file handle
type FileHandle struct {
	fs     *FileSystem
	handle vfs.FileHandle
	path   string
}

// Read reads data from the file
func (fh *FileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	fh.fs.stats.mu.Lock()
	fh.fs.stats.Reads++
	fh.fs.stats.mu.Unlock()

	n, err := fh.handle.ReadAt(dest, off)
	if err != nil && n == 0 {
		fh.fs.stats.mu.Lock()
		fh.fs.stats.Errors++
		fh.fs.stats.mu.Unlock()

		log.Printf("Read failed for %s at offset %d: %v", fh.path, off, err)
		return nil, syscall.EIO
	}

	fh.fs.stats.mu.Lock()
	fh.fs.stats.BytesRead += int64(n)
	fh.fs.stats.mu.Unlock()

	return fuse.ReadResultData(dest[:n]), 0
}

// Write writes data to the file
func (fh *FileHandle) Write(ctx context.Context, data []byte, off int64) (written uint32, errno syscall.Errno) {
	if fh.fs.config.ReadOnly {
		return 0, syscall.EROFS
	}

	n, err := fh.handle.WriteAt(data, off)
	if err != nil {
		fh.fs.stats.mu.Lock()
		fh.fs.stats.Errors++
		fh.fs.stats.mu.Unlock()

		log.Printf("Write failed for %s at offset %d: %v", fh.path, off, err)
		return 0, syscall.EIO
	}

	fh.fs.stats.mu.Lock()
	fh.fs.stats.Writes++
	fh.fs.stats.BytesWritten += int64(n)
	fh.fs.stats.mu.Unlock()

	return safeIntToUint32(n), 0
}

// Flush is a no-op: writes land directly on the engine's in-memory blocks,
// there is no write buffer to drain.
func (fh *FileHandle) Flush(ctx context.Context) syscall.Errno {
	return 0
}

// Release releases the file handle
func (fh *FileHandle) Release(ctx context.Context) syscall.Errno {
	if err := fh.handle.Close(); err != nil {
		fh.fs.stats.mu.Lock()
		fh.fs.stats.Errors++
		fh.fs.stats.mu.Unlock()
		return syscall.EIO
	}
	return 0
}

// Setattr handles truncate requests arriving via attribute changes.
func (fh *FileHandle) Setattr(ctx context.Context, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := fh.handle.Truncate(int64(size)); err != nil {
			return syscall.EIO
		}
	}
	return 0
}

// Helper methods for DirectoryNode

func (n *DirectoryNode) joinPath(name string) string {
	return filepath.Join(n.path, name)
}

func (n *DirectoryNode) createChildNode(name, path string) *fs.Inode {
	fileNode := &FileNode{fs: n.fs, path: path}
	return n.NewInode(context.Background(), fileNode, fs.StableAttr{Mode: fuse.S_IFREG})
}

func (n *DirectoryNode) createDirectoryNode(name, path string) *fs.Inode {
	dirNode := &DirectoryNode{fs: n.fs, path: path}
	return n.NewInode(context.Background(), dirNode, fs.StableAttr{Mode: fuse.S_IFDIR})
}
