/*
Package blockstore implements the fixed-size block pool that backs
RegularFile storage.

A Pool hands out BlockIDs in units of a configured block size. Free returns
blocks to a bounded free-list for reuse; blocks beyond the free-list's
capacity are dropped. Allocate fails with vfserr.OutOfSpace once resident
blocks would exceed the pool's configured maximum size.

Read, Write, and Zero operate directly on a block's bytes without holding
the pool's mutex — synchronizing concurrent access to a block's contents is
the caller's responsibility (in practice, the owning RegularFile's lock).
*/
package blockstore
