package lexigo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lexigo/model"
)

// BatchResult holds the per-record outcome of AddDocuments.
// IDs[i] is valid only when Errors[i] is nil.
type BatchResult struct {
	IDs    []model.DocID
	Errors []error
}

// Failed returns the number of records that were not added.
func (r BatchResult) Failed() int {
	n := 0
	for _, err := range r.Errors {
		if err != nil {
			n++
		}
	}
	return n
}

// Err joins every per-record error, annotated with its index.
// It returns nil when all records were added.
func (r BatchResult) Err() error {
	var errs []error
	for i, err := range r.Errors {
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
