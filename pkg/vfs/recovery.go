package vfs

import (
	"time"

	"github.com/objectfs/memvfs/pkg/vfserr"
)

// instrument wraps a File Operations Layer verb with panic recovery and
// metrics recording. A panic inside fn is converted into an Internal error
// rather than crashing the caller, matching the verb-boundary recovery
// discipline of the teacher's pkg/recovery, narrowed here to the one thing
// this engine's public surface needs: never let an invariant violation
// panic past createFile/delete/move/copy and the rest of the verb table.
func (fs *Filesystem) instrument(op string, fn func() error) (err error) {
	if fs.isClosed() {
		return vfserr.New(vfserr.Closed, "filesystem is closed").WithOperation(op).WithComponent("filesystem")
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = vfserr.Newf(vfserr.Internal, "panic in %s: %v", op, r).WithOperation(op)
			fs.logger.Error("recovered panic", map[string]interface{}{"operation": op, "panic": r})
		}
		fs.collector.RecordOperation(op, time.Since(start), err)
	}()
	err = fn()
	return err
}

// instrumentValue is instrument's counterpart for verbs that return a value
// alongside an error (createFile, list, readAttributes, ...).
func instrumentValue[T any](fs *Filesystem, op string, fn func() (T, error)) (result T, err error) {
	if fs.isClosed() {
		var zero T
		return zero, vfserr.New(vfserr.Closed, "filesystem is closed").WithOperation(op).WithComponent("filesystem")
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = vfserr.Newf(vfserr.Internal, "panic in %s: %v", op, r).WithOperation(op)
			fs.logger.Error("recovered panic", map[string]interface{}{"operation": op, "panic": r})
		}
		fs.collector.RecordOperation(op, time.Since(start), err)
	}()
	result, err = fn()
	return result, err
}
