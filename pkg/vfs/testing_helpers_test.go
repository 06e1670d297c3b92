package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/objectfs/memvfs/internal/config"
	"github.com/objectfs/memvfs/pkg/types"
)

// fakeClock is a monotonically-increasing FileTimeSource for tests that
// need ordering guarantees stdlib's wall clock can't promise at test speed.
type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() types.FileTime {
	c.now++
	return types.FileTime(c.now)
}

// newTestFilesystem builds a Filesystem against a default Unix
// configuration with metrics disabled, suitable for most operation tests.
func newTestFilesystem(t *testing.T) *Filesystem {
	t.Helper()

	raw := config.NewDefaultUnix()
	raw.Monitoring.Metrics.Enabled = false

	cfg, err := NewConfiguration(raw, nil, &fakeClock{})
	require.NoError(t, err)

	fs, err := New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = fs.Close() })
	return fs
}
