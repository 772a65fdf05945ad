// Package s3 provides a read-only Amazon S3 implementation of
// blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("logs/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	f, err := seekline.OpenBlob(ctx, store, "2024-01-01.log")
//
// # Features
//
//   - Ranged GETs, so a search touches only the blocks it probes
//   - Parallel whole-object download for spooling compressed objects
//   - Configurable key prefix
package s3
