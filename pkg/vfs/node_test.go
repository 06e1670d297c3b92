package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/memvfs/internal/blockstore"
	"github.com/objectfs/memvfs/pkg/types"
)

func newTestNodeTable(t *testing.T) *NodeTable {
	t.Helper()
	pool := blockstore.NewPool(4096, 0, 0)
	return NewNodeTable(pool)
}

func TestNodeTableCreateAssignsDistinctIDs(t *testing.T) {
	table := newTestNodeTable(t)

	a := table.create(KindDirectory, types.FileTime(1))
	b := table.create(KindDirectory, types.FileTime(2))

	assert.NotEqual(t, a.id, b.id)
	assert.True(t, a.isDirectory())
	assert.NotNil(t, a.dir)
}

func TestNodeTableGetReturnsLiveNode(t *testing.T) {
	table := newTestNodeTable(t)

	n := table.create(KindRegularFile, types.FileTime(1))
	got, ok := table.get(n.id)
	require.True(t, ok)
	assert.Same(t, n, got)

	_, ok = table.get(n.id + 1000)
	assert.False(t, ok)
}

func TestLinkRemovedFinalizesAtZeroLinksAndNoOpenHandles(t *testing.T) {
	table := newTestNodeTable(t)

	n := table.create(KindRegularFile, types.FileTime(1))
	table.linkAdded(n)
	assert.Equal(t, 1, n.linkCount())

	table.linkRemoved(n)

	_, ok := table.get(n.id)
	assert.False(t, ok)
}

func TestLinkRemovedDoesNotFinalizeWhileHandleOpen(t *testing.T) {
	table := newTestNodeTable(t)

	n := table.create(KindRegularFile, types.FileTime(1))
	table.linkAdded(n)
	table.handleOpened(n)

	table.linkRemoved(n)

	_, ok := table.get(n.id)
	assert.True(t, ok, "node must survive while a handle is still open")

	table.handleClosed(n)
	_, ok = table.get(n.id)
	assert.False(t, ok, "node must finalize once the last handle closes")
}

func TestHandleClosedFinalizesOnlyAfterUnlinked(t *testing.T) {
	table := newTestNodeTable(t)

	n := table.create(KindRegularFile, types.FileTime(1))
	table.linkAdded(n)
	table.handleOpened(n)
	table.handleClosed(n)

	_, ok := table.get(n.id)
	assert.True(t, ok, "node must survive while still linked")
}

func TestCloseAllReleasesBlocksAndEmptiesTable(t *testing.T) {
	pool := blockstore.NewPool(4096, 0, 0)
	table := NewNodeTable(pool)

	n := table.create(KindRegularFile, types.FileTime(1))
	_, err := n.file.Write(0, []byte("some data"))
	require.NoError(t, err)
	assert.Greater(t, pool.Stats().BlocksInUse, int64(0))

	table.closeAll()

	assert.Equal(t, int64(0), pool.Stats().BlocksInUse)
	_, ok := table.get(n.id)
	assert.False(t, ok)
}

func TestNodeAttrRoundTrip(t *testing.T) {
	table := newTestNodeTable(t)
	n := table.create(KindRegularFile, types.FileTime(1))

	_, ok := n.getAttr("basic", "isHidden")
	assert.False(t, ok)

	n.setAttr("basic", "isHidden", types.BoolValue(true))
	v, ok := n.getAttr("basic", "isHidden")
	require.True(t, ok)
	assert.Equal(t, types.BoolValue(true), v)
}
