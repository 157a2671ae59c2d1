// Package blobstore provides the object storage abstraction used for backups.
//
// A Store holds immutable, whole-object blobs addressed by slash-separated
// names. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with atomic writes
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 with multipart uploads for large blobs
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
