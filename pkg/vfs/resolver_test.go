package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/memvfs/pkg/vfserr"
)

func TestLookupAbsolutePath(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateFile(fs.Parse("/work/a.txt"), CreateOptions{})
	require.NoError(t, err)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/a.txt"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Node.isRegularFile())
}

func TestLookupRelativePathResolvesAgainstBase(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateFile(fs.Parse("/work/a.txt"), CreateOptions{})
	require.NoError(t, err)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("a.txt"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, result.Found)
}

func TestLookupDotSegmentIsNoOp(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateFile(fs.Parse("/work/a.txt"), CreateOptions{})
	require.NoError(t, err)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/./a.txt"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, result.Found)
}

func TestLookupDotDotWalksToParent(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateDirectory(fs.Parse("/work/sub"), CreateOptions{})
	require.NoError(t, err)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/sub/../sub"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Node.isDirectory())
}

func TestLookupThroughNonDirectoryFails(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateFile(fs.Parse("/work/a.txt"), CreateOptions{})
	require.NoError(t, err)

	_, err = fs.resolver.lookup(fs.workingDir, fs.Parse("/work/a.txt/nested"), FollowLinks)
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.NotADirectory))
}

func TestLookupMissingFinalSegmentReportsParentFound(t *testing.T) {
	fs := newTestFilesystem(t)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/missing.txt"), FollowLinks)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.NotNil(t, result.Parent)
	assert.Equal(t, "missing.txt", result.FinalName.Display())
}

func TestLookupMissingIntermediateSegmentFails(t *testing.T) {
	fs := newTestFilesystem(t)

	_, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/missing/a.txt"), FollowLinks)
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.NotFound))
}

func TestLookupFollowsSymlinkToFinalTarget(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateFile(fs.Parse("/work/target.txt"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateSymbolicLink(fs.Parse("/work/link.txt"), fs.Parse("/work/target.txt"), CreateOptions{}, true)
	require.NoError(t, err)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/link.txt"), FollowLinks)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Node.isRegularFile())
}

func TestLookupNoFollowReturnsSymlinkItself(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateFile(fs.Parse("/work/target.txt"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateSymbolicLink(fs.Parse("/work/link.txt"), fs.Parse("/work/target.txt"), CreateOptions{}, true)
	require.NoError(t, err)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/link.txt"), NoFollowLinks)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Node.isSymbolicLink())
}

func TestLookupFollowsSymlinkAsIntermediateComponentRegardlessOfOption(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateDirectory(fs.Parse("/work/real"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateFile(fs.Parse("/work/real/f.txt"), CreateOptions{})
	require.NoError(t, err)
	_, err = fs.CreateSymbolicLink(fs.Parse("/work/alias"), fs.Parse("/work/real"), CreateOptions{}, true)
	require.NoError(t, err)

	result, err := fs.resolver.lookup(fs.workingDir, fs.Parse("/work/alias/f.txt"), NoFollowLinks)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Node.isRegularFile())
}

func TestLookupSymlinkLoopFailsAtLimit(t *testing.T) {
	fs := newTestFilesystem(t)
	_, err := fs.CreateSymbolicLink(fs.Parse("/work/a"), fs.Parse("/work/b"), CreateOptions{}, true)
	require.NoError(t, err)
	_, err = fs.CreateSymbolicLink(fs.Parse("/work/b"), fs.Parse("/work/a"), CreateOptions{}, true)
	require.NoError(t, err)

	_, err = fs.resolver.lookup(fs.workingDir, fs.Parse("/work/a"), FollowLinks)
	require.Error(t, err)
	assert.True(t, vfserr.Is(err, vfserr.Loop))
}
