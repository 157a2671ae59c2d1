// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible services such as Ceph,
// SeaweedFS and Garage, without requiring the AWS SDK.
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
//	store := minioblob.NewStore(client, "my-bucket", "lexigo/")
//	info, err := db.Backup(ctx, store)
package minio
