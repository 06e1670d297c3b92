// Package blockstore implements the fixed-size block pool backing
// RegularFile storage: allocation, zero-fill, and a bounded free-list of
// blocks retained for reuse.
package blockstore

import (
	"container/list"
	"sync"

	"github.com/objectfs/memvfs/pkg/vfserr"
)

// BlockID identifies a block owned by a Pool. IDs are never reused while a
// block is in use. A freed block retained in the free-list keeps its ID and
// is handed out again under that ID by a later Allocate; the ID of a freed
// block that is discarded is never issued again.
type BlockID uint64

// Pool is a fixed-size block arena. Blocks are allocated in units of
// BlockSize bytes; freed blocks are retained (up to Config.MaxCacheSize/
// BlockSize of them) in a free-list for reuse instead of being reallocated,
// grounded on the teacher's map+container/list LRU bookkeeping in its byte
// range cache, repurposed here to retain whole blocks rather than byte
// ranges.
//
// Block contents are not protected by Pool's mutex: once Allocate returns an
// id, the caller (a RegularFile) owns synchronizing concurrent access to
// that block's bytes with its own lock. Pool's mutex guards only the
// allocation bookkeeping (the id table, the free-list, and the counters).
type Pool struct {
	mu sync.Mutex

	blockSize int64
	maxBlocks int64 // Config.MaxSize / blockSize; hard cap on resident (in-use) blocks
	maxFree   int64 // Config.MaxCacheSize / blockSize; cap on retained free blocks

	nextID  BlockID
	blocks  map[BlockID][]byte
	inUse   int64
	free    *list.List // of *freeBlock, most-recently-freed at front
	freeIdx map[BlockID]*list.Element
}

type freeBlock struct {
	id   BlockID
	data []byte
}

// NewPool creates a Pool with the given block size and size limits.
// maxSize is the hard cap (in bytes) on blocks in active use; maxCacheSize
// is the cap (in bytes) on blocks retained in the free-list after Free.
func NewPool(blockSize, maxSize, maxCacheSize int64) *Pool {
	if blockSize <= 0 {
		blockSize = 8192
	}
	return &Pool{
		blockSize: blockSize,
		maxBlocks: maxSize / blockSize,
		maxFree:   maxCacheSize / blockSize,
		blocks:    make(map[BlockID][]byte),
		free:      list.New(),
		freeIdx:   make(map[BlockID]*list.Element),
	}
}

// BlockSize returns the fixed size of every block in the pool.
func (p *Pool) BlockSize() int64 {
	return p.blockSize
}

// Allocate reserves n new zero-filled blocks, preferring reuse of blocks
// sitting in the free-list. It fails with vfserr.OutOfSpace if honoring the
// request would exceed the pool's configured maximum resident size.
func (p *Pool) Allocate(n int) ([]BlockID, error) {
	if n <= 0 {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.maxBlocks > 0 && p.inUse+int64(n) > p.maxBlocks {
		return nil, vfserr.New(vfserr.OutOfSpace, "block allocation would exceed the configured maximum size").
			WithComponent("blockstore").WithOperation("allocate")
	}

	ids := make([]BlockID, 0, n)
	for i := 0; i < n; i++ {
		if elem := p.free.Front(); elem != nil {
			fb := elem.Value.(*freeBlock)
			p.free.Remove(elem)
			delete(p.freeIdx, fb.id)
			p.blocks[fb.id] = fb.data
			ids = append(ids, fb.id)
			continue
		}

		id := p.nextID
		p.nextID++
		p.blocks[id] = make([]byte, p.blockSize)
		ids = append(ids, id)
	}

	p.inUse += int64(n)
	return ids, nil
}

// Free returns blocks to the pool. Their contents are zeroed and, subject
// to the free-list capacity (Config.MaxCacheSize/BlockSize), retained for
// reuse by a later Allocate; blocks beyond that capacity are discarded and
// left to the garbage collector.
func (p *Pool) Free(ids []BlockID) {
	if len(ids) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range ids {
		data, ok := p.blocks[id]
		if !ok {
			continue
		}
		delete(p.blocks, id)
		p.inUse--

		for i := range data {
			data[i] = 0
		}

		if p.maxFree <= 0 || int64(p.free.Len()) >= p.maxFree {
			continue
		}
		elem := p.free.PushFront(&freeBlock{id: id, data: data})
		p.freeIdx[id] = elem
	}
}

func (p *Pool) blockRef(id BlockID) ([]byte, bool) {
	p.mu.Lock()
	data, ok := p.blocks[id]
	p.mu.Unlock()
	return data, ok
}

// Read copies up to len(dst) bytes from block id starting at off into dst,
// returning the number of bytes copied.
func (p *Pool) Read(id BlockID, off int64, dst []byte) (int, error) {
	data, ok := p.blockRef(id)
	if !ok {
		return 0, vfserr.Newf(vfserr.Internal, "read from unknown block %d", id).WithComponent("blockstore")
	}
	if off < 0 || off > int64(len(data)) {
		return 0, vfserr.Newf(vfserr.InvalidArgument, "offset %d out of range for block of size %d", off, len(data)).
			WithComponent("blockstore")
	}
	return copy(dst, data[off:]), nil
}

// Write copies src into block id starting at off. src must fit within the
// block (off+len(src) <= BlockSize).
func (p *Pool) Write(id BlockID, off int64, src []byte) error {
	data, ok := p.blockRef(id)
	if !ok {
		return vfserr.Newf(vfserr.Internal, "write to unknown block %d", id).WithComponent("blockstore")
	}
	if off < 0 || off+int64(len(src)) > int64(len(data)) {
		return vfserr.Newf(vfserr.InvalidArgument, "write [%d,%d) out of range for block of size %d", off, off+int64(len(src)), len(data)).
			WithComponent("blockstore")
	}
	copy(data[off:], src)
	return nil
}

// Zero clears length bytes of block id starting at off.
func (p *Pool) Zero(id BlockID, off, length int64) error {
	data, ok := p.blockRef(id)
	if !ok {
		return vfserr.Newf(vfserr.Internal, "zero unknown block %d", id).WithComponent("blockstore")
	}
	if off < 0 || length < 0 || off+length > int64(len(data)) {
		return vfserr.Newf(vfserr.InvalidArgument, "zero range [%d,%d) out of range for block of size %d", off, off+length, len(data)).
			WithComponent("blockstore")
	}
	for i := off; i < off+length; i++ {
		data[i] = 0
	}
	return nil
}

// Stats is a snapshot of the pool's resource usage, consumed by
// internal/metrics to drive Prometheus gauges.
type Stats struct {
	BlocksInUse   int64
	BlocksPooled  int64
	BytesResident int64
}

// Stats returns a snapshot of the pool's current resource usage.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		BlocksInUse:   p.inUse,
		BlocksPooled:  int64(p.free.Len()),
		BytesResident: p.inUse * p.blockSize,
	}
}
