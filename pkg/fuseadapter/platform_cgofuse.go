//go:build cgofuse
// +build cgofuse

package fuse

import (
	"context"

	"github.com/objectfs/memvfs/pkg/vfs"
)

// PlatformFileSystem is the mount-manager surface common to both the
// go-fuse and cgofuse backends.
type PlatformFileSystem interface {
	Mount(ctx context.Context) error
	Unmount() error
	IsMounted() bool
	GetStats() *FilesystemStats
}

// CreatePlatformMountManager creates the cgofuse mount manager, used where
// WinFsp rather than a native FUSE kernel driver is available.
func CreatePlatformMountManager(engine vfs.Engine, config *MountConfig) PlatformFileSystem {
	return NewCgoFuseMountManager(engine, config)
}
