// Package lexigo provides an embedded document store with integrated full-text search.
//
// Records of any JSON-encodable type are stored under a caller-chosen
// external id, addressed by a compact internal id, and indexed token by token
// so that prefix queries find them.
//
// # Quick Start
//
//	type Article struct {
//	    ID    int    `json:"id"`
//	    Title string `json:"title"`
//	}
//
//	ctx := context.Background()
//	db, _ := lexigo.Open[Article](lexigo.Local("./data"))
//	defer db.Close()
//
//	db.AddDocument(ctx, Article{ID: 1, Title: "Quick brown fox"})
//	results, _ := db.Search("qui").Limit(10).Execute(ctx)
//
// # Documents and Ids
//
// The primary-key field (default "id", see WithPrimaryKey) holds the
// external id: a non-negative integer or a string of letters, digits, '_'
// and '-'. The integer 42 and the string "42" name the same document.
// Every new document receives the next internal id; ids are never reused,
// not even after DeleteDocument.
//
// # Search
//
// Queries are lowercased and split on anything that is not a letter or a
// digit. A document matches a query token when one of its tokens starts
// with it. Documents matching more distinct query tokens rank first; ties
// are broken by ascending internal id.
//
// # Transactions
//
// Each write runs in its own transaction and either commits completely or
// leaves no trace. Writes are serialized; reads run concurrently and never
// observe a partial write. Snapshot pins a consistent view across several
// reads.
//
// # Durability and Backups
//
// Data lives in a Pebble LSM store (Local) or an in-memory filesystem
// (InMemory). Backup copies a point-in-time checkpoint to any
// blobstore.Store (local disk, memory, S3, MinIO); Restore materializes it
// into a directory that Local can open.
package lexigo
