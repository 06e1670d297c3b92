package vfs

import (
	"io"

	"github.com/objectfs/memvfs/pkg/types"
)

// FileHandle is the minimal surface a protocol adapter (FUSE, an HTTP
// gateway, a test harness) needs from an open file, without depending on
// the concrete *Handle type or anything internal to the tree.
type FileHandle interface {
	io.Reader
	io.Writer
	io.ReaderAt
	io.WriterAt
	io.Seeker
	io.Closer
	Truncate(size int64) error
}

// Engine is the subset of *Filesystem's verb table an external collaborator
// is expected to drive: path-string based, so callers outside pkg/vfs never
// need to construct a vfspath.Path themselves. pkg/fuseadapter is the
// reference consumer of this interface; it is not part of the core engine
// and is excluded from the engine's own test matrix.
type Engine interface {
	Open(path string) (FileHandle, error)
	Create(path string) (FileHandle, error)
	Mkdir(path string) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	ReadDir(path string) ([]DirEntry, error)
	GetAttribute(path, spec string) (types.AttrValue, error)
	SetAttribute(path, spec string, value types.AttrValue) error
}

var _ Engine = (*Filesystem)(nil)
var _ FileHandle = (*Handle)(nil)

// Open opens path for reading and writing, following a terminal symlink.
func (fs *Filesystem) Open(path string) (FileHandle, error) {
	return fs.openHandle(path)
}

// Create creates path as a RegularFile (failing if it already exists) and
// opens it.
func (fs *Filesystem) Create(path string) (FileHandle, error) {
	parsed := fs.pathType.Parse(path)
	if _, err := fs.CreateFile(parsed, CreateOptions{}); err != nil {
		return nil, err
	}
	return fs.openHandle(path)
}

// Mkdir creates path as an empty Directory.
func (fs *Filesystem) Mkdir(path string) error {
	_, err := fs.CreateDirectory(fs.pathType.Parse(path), CreateOptions{})
	return err
}

// Remove deletes the entry at path.
func (fs *Filesystem) Remove(path string) error {
	return fs.Delete(fs.pathType.Parse(path), DeleteOptions{})
}

// Rename moves the entry at oldPath to newPath.
func (fs *Filesystem) Rename(oldPath, newPath string) error {
	return fs.Move(fs.pathType.Parse(oldPath), fs.pathType.Parse(newPath), MoveOptions{})
}

// ReadDir lists path's children.
func (fs *Filesystem) ReadDir(path string) ([]DirEntry, error) {
	return fs.List(fs.pathType.Parse(path))
}

// GetAttribute reads a single attribute from the file at path.
func (fs *Filesystem) GetAttribute(path, spec string) (types.AttrValue, error) {
	attrs, err := fs.ReadAttributes(fs.pathType.Parse(path), spec, FollowLinks)
	if err != nil {
		return nil, err
	}
	for _, v := range attrs {
		return v, nil
	}
	return nil, nil
}

// SetAttribute writes a single attribute on the file at path.
func (fs *Filesystem) SetAttribute(path, spec string, value types.AttrValue) error {
	return fs.SetAttributeAt(fs.pathType.Parse(path), spec, value, FollowLinks)
}
