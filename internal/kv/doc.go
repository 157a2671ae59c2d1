// Package kv is the transaction manager of lexigo.
//
// It wraps a Pebble database and exposes two kinds of transactions:
//
//   - ReadTx: a Pebble snapshot. Every read observes the state as of the moment
//     the transaction began, regardless of writes committed afterwards.
//   - WriteTx: an indexed Pebble batch. Reads within the transaction see its
//     own staged writes. Commit applies the batch atomically; Abort discards it.
//
// At most one WriteTx is open at a time. Admission is controlled by a weighted
// semaphore so BeginWrite honours context cancellation while waiting. Any
// number of ReadTx may be open concurrently with each other and with the
// writer.
//
// # Key layout
//
// All components share one keyspace. Each component owns a single-byte
// prefix (see keys.go) so prefix scans never cross component boundaries.
package kv
