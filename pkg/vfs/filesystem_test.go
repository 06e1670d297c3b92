package vfs

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/memvfs/pkg/vfserr"
)

func TestNewCreatesConfiguredWorkingDirectory(t *testing.T) {
	fs := newTestFilesystem(t)

	entries, err := fs.List(fs.Parse("/work"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateFileThenLookup(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/hello.txt"), CreateOptions{})
	require.NoError(t, err)

	n, err := fs.Lookup(fs.Parse("/work/hello.txt"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, n.isRegularFile())
	assert.Equal(t, 1, n.linkCount())
}

func TestCreateFileAlreadyExists(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/hello.txt"), CreateOptions{})
	require.NoError(t, err)

	_, err = fs.CreateFile(fs.Parse("/work/hello.txt"), CreateOptions{})
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.AlreadyExists))
}

func TestCreateDirectoryLinkCounts(t *testing.T) {
	fs := newTestFilesystem(t)

	child, err := fs.CreateDirectory(fs.Parse("/work/sub"), CreateOptions{})
	require.NoError(t, err)

	// the parent's entry, "." self-reference, and its own back-reference
	// from the parent's ".." bump combine to 2 links on the child itself
	// (parent-entry + self) plus a bump on the parent for the child's "..".
	assert.Equal(t, 2, child.linkCount())

	parent, err := fs.Lookup(fs.Parse("/work"), FollowLinks)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, parent.linkCount(), 3)
}

func TestDeleteNonEmptyDirectoryRefused(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateDirectory(fs.Parse("/work/sub"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateFile(fs.Parse("/work/sub/f.txt"), CreateOptions{})
	require.NoError(t, err)

	err = fs.Delete(fs.Parse("/work/sub"), DeleteOptions{})
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.DirectoryNotEmpty))
}

func TestDeleteFileReleasesBlocksOnFinalUnlink(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/f.txt"), CreateOptions{})
	require.NoError(t, err)

	h, err := fs.Open("/work/f.txt")
	require.NoError(t, err)
	_, err = h.Write([]byte("hello"))
	require.NoError(t, err)

	before := fs.pool.Stats().BlocksInUse
	assert.Greater(t, before, int64(0))

	require.NoError(t, fs.Delete(fs.Parse("/work/f.txt"), DeleteOptions{}))

	// the node stays alive while the handle is open
	assert.Equal(t, before, fs.pool.Stats().BlocksInUse)

	_, err = h.Seek(0, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err := h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	require.NoError(t, h.Close())
	assert.Equal(t, int64(0), fs.pool.Stats().BlocksInUse)
}

func TestMoveRenamesEntry(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/a.txt"), CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, fs.Move(fs.Parse("/work/a.txt"), fs.Parse("/work/b.txt"), MoveOptions{}))

	_, err = fs.Lookup(fs.Parse("/work/a.txt"), FollowLinks)
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.NotFound))

	n, err := fs.Lookup(fs.Parse("/work/b.txt"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, n.isRegularFile())
}

func TestMoveDestinationExistsRefusedWithoutReplace(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/a.txt"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateFile(fs.Parse("/work/b.txt"), CreateOptions{})
	require.NoError(t, err)

	err = fs.Move(fs.Parse("/work/a.txt"), fs.Parse("/work/b.txt"), MoveOptions{})
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.AlreadyExists))
}

func TestCopyRegularFileDuplicatesData(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/src.txt"), CreateOptions{})
	require.NoError(t, err)
	h, err := fs.Open("/work/src.txt")
	require.NoError(t, err)
	_, err = h.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, h.Close())

	require.NoError(t, fs.Copy(fs.Parse("/work/src.txt"), fs.Parse("/work/dst.txt"), CopyOptions{}))

	dst, err := fs.Open("/work/dst.txt")
	require.NoError(t, err)
	buf := make([]byte, 7)
	n, err := dst.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(buf[:n]))
	require.NoError(t, dst.Close())

	src, err := fs.Open("/work/src.txt")
	require.NoError(t, err)
	n, err = src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(buf[:n]))
	require.NoError(t, src.Close())
}

func TestCreateHardLinkSharesData(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/orig.txt"), CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, fs.CreateLink(fs.Parse("/work/alias.txt"), fs.Parse("/work/orig.txt"), true))

	h, err := fs.Open("/work/alias.txt")
	require.NoError(t, err)
	_, err = h.Write([]byte("shared"))
	require.NoError(t, err)
	require.NoError(t, h.Close())

	h2, err := fs.Open("/work/orig.txt")
	require.NoError(t, err)
	buf := make([]byte, 6)
	n, err := h2.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(buf[:n]))
	require.NoError(t, h2.Close())

	origNode, err := fs.Lookup(fs.Parse("/work/orig.txt"), FollowLinks)
	require.NoError(t, err)
	assert.Equal(t, 2, origNode.linkCount())
}

func TestCreateSymbolicLinkFollowedByDefault(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/target.txt"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateSymbolicLink(fs.Parse("/work/link.txt"), fs.Parse("/work/target.txt"), CreateOptions{}, true)
	require.NoError(t, err)

	followed, err := fs.Lookup(fs.Parse("/work/link.txt"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, followed.isRegularFile())

	unfollowed, err := fs.Lookup(fs.Parse("/work/link.txt"), NoFollowLinks)
	require.NoError(t, err)
	assert.True(t, unfollowed.isSymbolicLink())
}

func TestCreateSymbolicLinkRequiresFeature(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateSymbolicLink(fs.Parse("/work/link.txt"), fs.Parse("/work/missing.txt"), CreateOptions{}, false)
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.Unsupported))
}

func TestSymlinkLoopFailsClosed(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateSymbolicLink(fs.Parse("/work/a"), fs.Parse("/work/b"), CreateOptions{}, true)
	require.NoError(t, err)
	_, err = fs.CreateSymbolicLink(fs.Parse("/work/b"), fs.Parse("/work/a"), CreateOptions{}, true)
	require.NoError(t, err)

	_, err = fs.Lookup(fs.Parse("/work/a"), FollowLinks)
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.Loop))
}

func TestListReturnsDirectoryEntries(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/a.txt"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateDirectory(fs.Parse("/work/b"), CreateOptions{})
	require.NoError(t, err)

	entries, err := fs.List(fs.Parse("/work"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name.Display()] = true
	}
	assert.True(t, names["a.txt"])
	assert.True(t, names["b"])
}

func TestReadAndSetAttributes(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/f.txt"), CreateOptions{})
	require.NoError(t, err)

	attrs, err := fs.ReadAttributes(fs.Parse("/work/f.txt"), "basic:*", FollowLinks)
	require.NoError(t, err)
	assert.Contains(t, attrs, "size")
	assert.Contains(t, attrs, "isRegularFile")
}

func TestCloseFailsSubsequentOperations(t *testing.T) {
	raw := newTestFilesystem(t)
	require.NoError(t, raw.Close())

	_, err := raw.CreateFile(raw.Parse("/work/f.txt"), CreateOptions{})
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.Closed))
}

func TestCloseInvalidatesOpenHandles(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.CreateFile(fs.Parse("/work/f.txt"), CreateOptions{})
	require.NoError(t, err)
	h, err := fs.Open("/work/f.txt")
	require.NoError(t, err)

	require.NoError(t, fs.Close())

	_, err = h.Write([]byte("x"))
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.Closed))
}

func TestCloseTwiceIsANoOp(t *testing.T) {
	fs := newTestFilesystem(t)
	require.NoError(t, fs.Close())
	require.NoError(t, fs.Close())
}
