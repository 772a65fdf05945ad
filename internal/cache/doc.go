// Package cache provides block caches for remote blob reads.
//
// # Memory
//
// [LRUBlockCache] is a byte-capped LRU guarded by one mutex.
// [ShardedLRUBlockCache] spreads keys over 64 LRU shards for concurrent
// searches over many objects. Both charge their footprint against a
// resource.Controller when one is given.
//
// # Disk
//
// [DiskBlockCache] keeps blocks of remote objects on local disk so repeated
// runs of the CLI against the same object skip the network:
//   - Writes happen in the background, bounded by a semaphore
//   - LRU eviction with a byte limit
//   - The index is rebuilt from the directory on startup
//
// [Tiered] chains a memory cache in front of a disk cache.
package cache
