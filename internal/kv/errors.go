package kv

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when the manager has been closed.
	ErrClosed = errors.New("kv: closed")

	// ErrTxDone is returned when a transaction is used after Commit or Abort.
	ErrTxDone = errors.New("kv: transaction already finished")
)

// StorageError wraps a failure reported by the underlying storage engine.
//
// The original error can be accessed via errors.Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("kv: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
