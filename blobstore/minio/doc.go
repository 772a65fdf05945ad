// Package minio provides a read-only BlobStore backed by the MinIO client.
//
// It serves MinIO and other S3-compatible servers such as Ceph, SeaweedFS
// and Garage without the AWS SDK.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "logs", "2024/")
//	f, err := seekline.OpenBlob(ctx, store, "01-01.log")
package minio
