// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("lexigo/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	info, err := db.Backup(ctx, store)
//
// # Features
//
//   - Multipart uploads for large blobs
//   - CRC32C integrity checksums on single-part puts
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
