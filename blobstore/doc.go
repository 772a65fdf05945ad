// Package blobstore provides read-only access to sorted line files that live
// outside the local filesystem, or are served from it through mmap.
//
// [BlobStore] opens named blobs; a [Blob] serves context-bound ranged reads.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local files, memory-mapped
//   - MemoryStore: in-memory blobs for tests
//   - CachingStore: block cache in front of any store
//   - s3.Store: Amazon S3 with ranged GETs and parallel download
//   - minio.Store: S3-compatible servers through minio-go
//
// # Reading
//
// [Reader] turns a Blob into an io.ReadSeeker, so a cursor can search a
// remote object directly:
//
//	blob, err := store.Open(ctx, "logs/2024-01-01.log")
//	r := blobstore.NewReader(ctx, blob, rc)
//	c, err := cursor.New(r)
//
// Compressed objects cannot be decoded from the middle. [Spool] copies them
// to a local file first:
//
//	n, err := blobstore.Spool(ctx, store, "logs/2024-01-01.log.gz", tmp)
package blobstore
