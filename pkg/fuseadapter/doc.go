/*
Package fuse provides a cross-platform FUSE front end for a vfs.Engine.

It translates POSIX filesystem calls (lookup, readdir, open, read, write,
mkdir, rename, unlink) into calls against the engine's path-string verb
table, using hanwen/go-fuse on Linux and cgofuse/WinFsp on macOS and
Windows, selected at build time by the "cgofuse" build tag.

This package is a reference consumer of vfs.Engine, not part of the core
engine: it holds no filesystem state of its own beyond per-mount statistics
and open-handle bookkeeping, and every operation it exposes maps directly
onto one engine verb.

# Architecture

	User Applications (ls, cat, cp, vim, ...)
	              │
	     Kernel VFS Layer (POSIX syscalls)
	              │
	          FUSE driver (platform-specific)
	              │
	    fuse.FileSystem / fuse.CgoFuseFS  ← this package
	              │
	           vfs.Engine

FileSystem (filesystem.go) implements the go-fuse fs.InodeEmbedder tree:
DirectoryNode for lookup/readdir/mkdir/rename, FileNode for getattr, and
FileHandle wrapping a vfs.FileHandle for read/write/truncate/close.
CgoFuseFS (cgofuse_filesystem.go, built only under -tags cgofuse) implements
the same mapping against cgofuse's flat path-based callback interface for
platforms without a native go-fuse driver.

MountManager (mount.go) owns the go-fuse mount lifecycle: validating the
mount point, building FUSE mount options, mounting, and unmounting a
FileSystem. Under -tags cgofuse, CgoFuseMountManager (cgofuse_mount.go)
plays the same role for a CgoFuseFS; CreatePlatformMountManager returns
whichever of the two the build selects.
*/
package fuse
