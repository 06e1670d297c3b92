//go:build !cgofuse
// +build !cgofuse

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

// CreatePlatformMountManager creates the appropriate mount manager for the
// platform: hanwen/go-fuse everywhere this file's build tag applies.
func CreatePlatformMountManager(engine vfs.Engine, config *MountConfig) PlatformFileSystem {
	fuseConfig := &Config{
		MountPoint:  config.MountPoint,
		ReadOnly:    false,
		DefaultUID:  config.Permissions.UID,
		DefaultGID:  config.Permissions.GID,
		DefaultMode: config.Permissions.FileMode,
	}

	filesystem := NewFileSystem(engine, fuseConfig)
	return NewMountManager(filesystem, config)
}
