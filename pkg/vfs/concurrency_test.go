package vfs

import (
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/memvfs/pkg/types"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// TestConcurrentAppendsToDistinctFilesLoseNoBytes covers the first
// concurrency property of spec.md §8: N concurrent writers each appending
// fixed-size chunks to distinct files lose or duplicate no byte, and each
// file's final content is the concatenation of that writer's chunks, in
// order.
func TestConcurrentAppendsToDistinctFilesLoseNoBytes(t *testing.T) {
	fs := newTestFilesystem(t)

	const writers = 8
	const chunks = 64
	const chunkSize = 7

	expected := make([][]byte, writers)
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()

			path := fmt.Sprintf("/work/writer-%d.txt", w)
			_, err := fs.CreateFile(fs.Parse(path), CreateOptions{})
			assert.NoError(t, err)

			h, err := fs.NewByteChannel(path)
			assert.NoError(t, err)
			defer h.Close()

			want := make([]byte, 0, chunks*chunkSize)
			chunk := make([]byte, chunkSize)
			for c := 0; c < chunks; c++ {
				for b := range chunk {
					chunk[b] = byte('A' + (w+c)%26)
				}
				n, err := h.Write(chunk)
				assert.NoError(t, err)
				assert.Equal(t, chunkSize, n)
				want = append(want, chunk...)
			}
			expected[w] = want
		}(w)
	}
	wg.Wait()

	for w := 0; w < writers; w++ {
		path := fmt.Sprintf("/work/writer-%d.txt", w)
		n, err := fs.Lookup(fs.Parse(path), FollowLinks)
		require.NoError(t, err)
		assert.Equal(t, int64(chunks*chunkSize), n.file.Size())

		h, err := fs.Open(path)
		require.NoError(t, err)
		got := make([]byte, chunks*chunkSize)
		_, err = io.ReadFull(h, got)
		require.NoError(t, err)
		assert.Equal(t, expected[w], got)
		require.NoError(t, h.Close())
	}
}

// TestConcurrentMovesOnDisjointSubtreesAreLinearizable covers the second
// concurrency property of spec.md §8: concurrent move operations targeting
// disjoint subtrees never corrupt or cross-contaminate the tree, each
// move's own fileKey survives unchanged, and the source and destination of
// every move land exactly where a serial execution would have left them.
func TestConcurrentMovesOnDisjointSubtreesAreLinearizable(t *testing.T) {
	fs := newTestFilesystem(t)

	const movers = 8
	fileKeys := make([]types.Int64Value, movers)
	for i := 0; i < movers; i++ {
		srcDir := fmt.Sprintf("/work/src%d", i)
		_, err := fs.CreateDirectory(fs.Parse(srcDir), CreateOptions{})
		require.NoError(t, err)

		filePath := srcDir + "/f.txt"
		_, err = fs.CreateFile(fs.Parse(filePath), CreateOptions{})
		require.NoError(t, err)

		attrs, err := fs.ReadAttributes(fs.Parse(filePath), "basic:fileKey", FollowLinks)
		require.NoError(t, err)
		fileKeys[i] = attrs["fileKey"].(types.Int64Value)
	}

	errs := make([]error, movers)
	var wg sync.WaitGroup
	wg.Add(movers)
	for i := 0; i < movers; i++ {
		go func(i int) {
			defer wg.Done()
			src := fs.Parse(fmt.Sprintf("/work/src%d", i))
			dst := fs.Parse(fmt.Sprintf("/work/dst%d", i))
			errs[i] = fs.Move(src, dst, MoveOptions{})
		}(i)
	}
	wg.Wait()

	for i := 0; i < movers; i++ {
		require.NoError(t, errs[i])

		_, err := fs.Lookup(fs.Parse(fmt.Sprintf("/work/src%d", i)), FollowLinks)
		require.Error(t, err)
		assert.True(t, vfserr.Is(err, vfserr.NotFound))

		filePath := fmt.Sprintf("/work/dst%d/f.txt", i)
		attrs, err := fs.ReadAttributes(fs.Parse(filePath), "basic:fileKey", FollowLinks)
		require.NoError(t, err)
		assert.Equal(t, fileKeys[i], attrs["fileKey"].(types.Int64Value))
	}
}
