package vfs

import (
	"sync"

	"github.com/objectfs/memvfs/internal/blockstore"
)

// regularFileData is the payload of a RegularFile node: a growing array of
// block references plus the logical size. Reads take the read side of mu;
// writes and truncations take the write side. These methods take no
// filesystem-level lock themselves: handles call them without the tree lock,
// while Copy and attribute reads call them with the tree lock held.
type regularFileData struct {
	mu     sync.RWMutex
	pool   *blockstore.Pool
	blocks []blockstore.BlockID
	size   int64
}

func newRegularFileData(pool *blockstore.Pool) *regularFileData {
	return &regularFileData{pool: pool}
}

func (f *regularFileData) blockSize() int64 { return f.pool.BlockSize() }

// Size returns the file's current logical length.
func (f *regularFileData) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}

// Read copies up to len(dst) bytes starting at position into dst, returning
// the number of bytes actually copied. It never returns more than size-position
// bytes; callers detect EOF by n < len(dst).
func (f *regularFileData) Read(position int64, dst []byte) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if position >= f.size || len(dst) == 0 {
		return 0, nil
	}

	avail := f.size - position
	toRead := int64(len(dst))
	if toRead > avail {
		toRead = avail
	}

	bs := f.blockSize()
	total := 0
	for total < int(toRead) {
		abs := position + int64(total)
		idx := abs / bs
		off := abs % bs
		n, err := f.pool.Read(f.blocks[idx], off, dst[total:toRead])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

// Write copies src into the file starting at position, growing the block
// array and updating size as needed. If position is past the current size,
// the gap reads back as zero (new blocks are always zero-filled by the
// pool, so no explicit zero-fill is required for the hole itself).
func (f *regularFileData) Write(position int64, src []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(position, src)
}

func (f *regularFileData) writeLocked(position int64, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}

	bs := f.blockSize()
	end := position + int64(len(src))
	if err := f.growTo(end); err != nil {
		return 0, err
	}

	written := 0
	for written < len(src) {
		abs := position + int64(written)
		idx := abs / bs
		off := abs % bs
		chunk := src[written:]
		if int64(len(chunk)) > bs-off {
			chunk = chunk[:bs-off]
		}
		if err := f.pool.Write(f.blocks[idx], off, chunk); err != nil {
			return written, err
		}
		written += len(chunk)
	}

	if end > f.size {
		f.size = end
	}
	return written, nil
}

// Append writes src at the current end of the file atomically with respect
// to size: no other writer can observe an intermediate size between the
// read of the append position and the write completing, since both happen
// while mu is held.
func (f *regularFileData) Append(src []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(f.size, src)
}

// growTo ensures the block array covers at least upTo bytes, allocating new
// zero-filled blocks from the pool as needed.
func (f *regularFileData) growTo(upTo int64) error {
	bs := f.blockSize()
	needed := (upTo + bs - 1) / bs
	if needed <= int64(len(f.blocks)) {
		return nil
	}
	toAlloc := int(needed) - len(f.blocks)
	ids, err := f.pool.Allocate(toAlloc)
	if err != nil {
		return err
	}
	f.blocks = append(f.blocks, ids...)
	return nil
}

// Truncate changes the file's logical size. Shrinking frees blocks beyond
// the new size, after zeroing the tail of the last remaining partial
// block. Growing allocates zero-filled blocks up to the new size via
// growTo, so a Read into the grown range always sees zeros rather than
// indexing past the end of f.blocks.
func (f *regularFileData) Truncate(newSize int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if newSize == f.size {
		return nil
	}

	bs := f.blockSize()
	if newSize < f.size {
		keepBlocks := (newSize + bs - 1) / bs
		if newSize%bs != 0 && keepBlocks > 0 {
			last := f.blocks[keepBlocks-1]
			off := newSize % bs
			if err := f.pool.Zero(last, off, bs-off); err != nil {
				return err
			}
		}
		if keepBlocks < int64(len(f.blocks)) {
			freed := f.blocks[keepBlocks:]
			f.pool.Free(freed)
			f.blocks = f.blocks[:keepBlocks]
		}
	} else if err := f.growTo(newSize); err != nil {
		return err
	}

	f.size = newSize
	return nil
}

// TransferTo copies count bytes starting at position in f into dst starting
// at dstPosition, block-granular, without an intermediate buffer beyond a
// single block's worth.
func (f *regularFileData) TransferTo(position int64, dst *regularFileData, dstPosition, count int64) (int64, error) {
	bs := f.blockSize()
	buf := make([]byte, bs)

	f.mu.RLock()
	defer f.mu.RUnlock()

	var total int64
	for total < count {
		remaining := count - total
		chunkLen := bs
		if remaining < chunkLen {
			chunkLen = remaining
		}
		n, err := f.readLocked(position+total, buf[:chunkLen])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		if _, err := dst.Write(dstPosition+total, buf[:n]); err != nil {
			return total, err
		}
		total += int64(n)
	}
	return total, nil
}

func (f *regularFileData) readLocked(position int64, dst []byte) (int, error) {
	if position >= f.size || len(dst) == 0 {
		return 0, nil
	}
	avail := f.size - position
	toRead := int64(len(dst))
	if toRead > avail {
		toRead = avail
	}
	bs := f.blockSize()
	total := 0
	for total < int(toRead) {
		abs := position + int64(total)
		idx := abs / bs
		off := abs % bs
		n, err := f.pool.Read(f.blocks[idx], off, dst[total:toRead])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

// TransferFrom copies count bytes from src starting at srcPosition into f
// starting at position.
func (f *regularFileData) TransferFrom(position int64, src *regularFileData, srcPosition, count int64) (int64, error) {
	return src.TransferTo(srcPosition, f, position, count)
}

// releaseAll returns every block f owns to the pool, called once when the
// owning node is finalized.
func (f *regularFileData) releaseAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pool.Free(f.blocks)
	f.blocks = nil
	f.size = 0
}
