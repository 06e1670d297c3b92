package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/memvfs/internal/blockstore"
)

func newTestRegularFile(t *testing.T) *regularFileData {
	t.Helper()
	pool := blockstore.NewPool(16, 0, 0)
	return newRegularFileData(pool)
}

func TestRegularFileWriteThenRead(t *testing.T) {
	f := newTestRegularFile(t)

	n, err := f.Write(0, []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, int64(11), f.Size())

	buf := make([]byte, 11)
	n, err = f.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(buf[:n]))
}

func TestRegularFileWriteSpansMultipleBlocks(t *testing.T) {
	f := newTestRegularFile(t) // block size 16

	payload := make([]byte, 50)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	n, err := f.Write(0, payload)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	buf := make([]byte, 50)
	n, err = f.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:n])
}

func TestRegularFileReadPastEndReturnsZero(t *testing.T) {
	f := newTestRegularFile(t)
	_, err := f.Write(0, []byte("abc"))
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := f.Read(100, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRegularFileWritePastEndLeavesZeroHole(t *testing.T) {
	f := newTestRegularFile(t)
	_, err := f.Write(20, []byte("end"))
	require.NoError(t, err)
	assert.Equal(t, int64(23), f.Size())

	buf := make([]byte, 23)
	n, err := f.Read(0, buf)
	require.NoError(t, err)
	require.Equal(t, 23, n)
	for _, b := range buf[:20] {
		assert.Equal(t, byte(0), b)
	}
	assert.Equal(t, "end", string(buf[20:23]))
}

func TestRegularFileAppendGrowsAtCurrentEnd(t *testing.T) {
	f := newTestRegularFile(t)
	_, err := f.Write(0, []byte("abc"))
	require.NoError(t, err)

	_, err = f.Append([]byte("def"))
	require.NoError(t, err)

	assert.Equal(t, int64(6), f.Size())
	buf := make([]byte, 6)
	_, err = f.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(buf))
}

func TestRegularFileTruncateShrinkFreesBlocksAndZerosTail(t *testing.T) {
	f := newTestRegularFile(t)
	_, err := f.Write(0, []byte("0123456789abcdef0123")) // 20 bytes, 2 blocks
	require.NoError(t, err)

	require.NoError(t, f.Truncate(5))
	assert.Equal(t, int64(5), f.Size())

	// growing back reads the truncated tail as zero, not stale data
	require.NoError(t, f.Truncate(20))
	buf := make([]byte, 20)
	n, err := f.Read(0, buf)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	assert.Equal(t, "01234", string(buf[:5]))
	for _, b := range buf[5:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestRegularFileTruncateGrowAllocatesZeroFilledBlocks(t *testing.T) {
	f := newTestRegularFile(t)
	require.NoError(t, f.Truncate(100))
	assert.Equal(t, int64(100), f.Size())
	assert.NotEmpty(t, f.blocks)

	buf := make([]byte, 100)
	n, err := f.Read(0, buf)
	require.NoError(t, err)
	require.Equal(t, 100, n)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

func TestRegularFileTransferToCopiesBetweenFiles(t *testing.T) {
	src := newTestRegularFile(t)
	dst := newTestRegularFile(t)

	_, err := src.Write(0, []byte("the quick brown fox"))
	require.NoError(t, err)

	n, err := src.TransferTo(4, dst, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	buf := make([]byte, 5)
	_, err = dst.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, "quick", string(buf))
}

func TestRegularFileReleaseAllFreesBlocksAndResetsSize(t *testing.T) {
	pool := blockstore.NewPool(16, 0, 0)
	f := newRegularFileData(pool)

	_, err := f.Write(0, []byte("some payload data"))
	require.NoError(t, err)
	assert.Greater(t, pool.Stats().BlocksInUse, int64(0))

	f.releaseAll()

	assert.Equal(t, int64(0), pool.Stats().BlocksInUse)
	assert.Equal(t, int64(0), f.Size())
}
