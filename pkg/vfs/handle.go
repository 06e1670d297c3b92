package vfs

import (
	"io"
	"sync"

	"github.com/objectfs/memvfs/pkg/vfserr"
)

// Handle is an open reference to a RegularFile's data, obtained under the
// tree lock at open time and then used lock-free against the file's own
// mutex for the rest of its life, per spec.md §5. Closing decrements the
// owning node's open-handle count.
type Handle struct {
	mu       sync.Mutex
	fs       *Filesystem
	node     *node
	position int64
	closed   bool
}

// NewInputStream opens path for reading, following a terminal symlink.
func (fs *Filesystem) NewInputStream(pathStr string) (*Handle, error) {
	return fs.openHandle(pathStr)
}

// NewOutputStream opens path for writing, following a terminal symlink.
// It behaves like NewInputStream for this in-memory engine: reads and
// writes share one handle type, distinguished only by which methods the
// caller exercises.
func (fs *Filesystem) NewOutputStream(pathStr string) (*Handle, error) {
	return fs.openHandle(pathStr)
}

// NewByteChannel opens path for random-access reads and writes.
func (fs *Filesystem) NewByteChannel(pathStr string) (*Handle, error) {
	return fs.openHandle(pathStr)
}

func (fs *Filesystem) openHandle(pathStr string) (*Handle, error) {
	return instrumentValue(fs, "open", func() (*Handle, error) {
		path := fs.pathType.Parse(pathStr)

		fs.tree.Lock()
		defer fs.tree.Unlock()

		result, err := fs.resolver.lookup(fs.workingDir, path, FollowLinks)
		if err != nil {
			return nil, err
		}
		if !result.Found {
			return nil, vfserr.New(vfserr.NotFound, "no such file or directory").WithPath(pathStr).WithComponent("filesystem")
		}
		if !result.Node.isRegularFile() {
			return nil, vfserr.New(vfserr.IsADirectory, "not a regular file").WithPath(pathStr).WithComponent("filesystem")
		}

		fs.nodes.handleOpened(result.Node)
		return &Handle{fs: fs, node: result.Node}, nil
	})
}

// Read copies the next portion of the file into p starting at the handle's
// current position, advancing it by the number of bytes read.
func (h *Handle) Read(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.fs.isClosed() {
		return 0, vfserr.New(vfserr.Closed, "handle is closed").WithComponent("handle")
	}
	n, err := h.node.file.Read(h.position, p)
	h.position += int64(n)
	if err == nil && n == 0 && len(p) > 0 {
		return n, io.EOF
	}
	return n, err
}

// Write copies p into the file at the handle's current position, advancing
// it by the number of bytes written.
func (h *Handle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.fs.isClosed() {
		return 0, vfserr.New(vfserr.Closed, "handle is closed").WithComponent("handle")
	}
	n, err := h.node.file.Write(h.position, p)
	h.position += int64(n)
	return n, err
}

// ReadAt reads from an absolute position without disturbing the handle's
// sequential cursor, the pattern newByteChannel's random-access callers
// need.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.fs.isClosed() {
		return 0, vfserr.New(vfserr.Closed, "handle is closed").WithComponent("handle")
	}
	n, err := h.node.file.Read(off, p)
	if err == nil && n < len(p) {
		return n, io.EOF
	}
	return n, err
}

// WriteAt writes at an absolute position without disturbing the handle's
// sequential cursor.
func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.fs.isClosed() {
		return 0, vfserr.New(vfserr.Closed, "handle is closed").WithComponent("handle")
	}
	return h.node.file.Write(off, p)
}

// Seek repositions the handle's cursor.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.fs.isClosed() {
		return 0, vfserr.New(vfserr.Closed, "handle is closed").WithComponent("handle")
	}
	switch whence {
	case io.SeekStart:
		h.position = offset
	case io.SeekCurrent:
		h.position += offset
	case io.SeekEnd:
		h.position = h.node.file.Size() + offset
	default:
		return 0, vfserr.New(vfserr.InvalidArgument, "invalid whence").WithComponent("handle")
	}
	return h.position, nil
}

// Truncate changes the file's logical size.
func (h *Handle) Truncate(size int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.fs.isClosed() {
		return vfserr.New(vfserr.Closed, "handle is closed").WithComponent("handle")
	}
	return h.node.file.Truncate(size)
}

// Close releases the handle. Closing twice is a no-op.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.fs.nodes.handleClosed(h.node)
	return nil
}
