package lexigo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lexigo/codec"
	"github.com/hupe1980/lexigo/internal/docstore"
	"github.com/hupe1980/lexigo/internal/extid"
	"github.com/hupe1980/lexigo/internal/fields"
	"github.com/hupe1980/lexigo/internal/ingest"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/internal/textindex"
)

var (
	// ErrCodec is returned when a record cannot be converted to fields.
	ErrCodec = errors.New("codec error")

	// ErrDuplicateExternalID is returned when inserting an external id that
	// is already registered.
	ErrDuplicateExternalID = errors.New("duplicate external id")

	// ErrUnknownFieldID indicates a stored document references a field id the
	// dictionary never allocated. It signals an internal inconsistency.
	ErrUnknownFieldID = errors.New("unknown field id")

	// ErrDecode is returned when a stored document cannot be materialized as
	// the requested type.
	ErrDecode = errors.New("decode error")

	// ErrStorage is returned when the storage engine fails.
	ErrStorage = errors.New("storage error")

	// ErrClosed is returned by operations on a closed database or snapshot.
	ErrClosed = errors.New("database closed")

	// ErrMissingExternalID is returned when a record lacks its primary-key field.
	ErrMissingExternalID = errors.New("missing external id")

	// ErrInvalidExternalID is returned for a primary-key value that is neither
	// a non-negative integer nor a valid id string.
	ErrInvalidExternalID = errors.New("invalid external id")

	// ErrInvalidLimit is returned when a search limit is not positive or
	// exceeds the configured maximum.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrTooManyFields is returned when the field dictionary is full.
	ErrTooManyFields = errors.New("too many fields")

	// ErrNotFound is returned when a backup or a required result is absent.
	ErrNotFound = errors.New("not found")
)

// IngestError reports an aborted ingestion together with the last pipeline
// state reached. Retrieve it with errors.As.
type IngestError = ingest.Error

// IngestState is a step of the ingestion pipeline.
type IngestState = ingest.State

// Ingestion states.
const (
	StateStart          = ingest.Start
	StateFieldsResolved = ingest.FieldsResolved
	StateIDAssigned     = ingest.IDAssigned
	StateStored         = ingest.Stored
	StateIndexed        = ingest.Indexed
	StateCommitted      = ingest.Committed
	StateAborted        = ingest.Aborted
)

var rootErrors = []error{
	ErrCodec, ErrDuplicateExternalID, ErrUnknownFieldID, ErrDecode, ErrStorage, ErrClosed,
	ErrMissingExternalID, ErrInvalidExternalID, ErrInvalidLimit, ErrTooManyFields, ErrNotFound,
}

// translateError maps internal errors onto the exported sentinels. Errors
// that already carry one are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range rootErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	switch {
	case errors.Is(err, ingest.ErrCodec), errors.Is(err, codec.ErrNotObject), errors.Is(err, fields.ErrEmptyName):
		return fmt.Errorf("%w: %w", ErrCodec, err)
	case errors.Is(err, extid.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrDuplicateExternalID, err)
	case errors.Is(err, ingest.ErrMissingExternalID):
		return fmt.Errorf("%w: %w", ErrMissingExternalID, err)
	case errors.Is(err, extid.ErrInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidExternalID, err)
	case errors.Is(err, fields.ErrUnknownFieldID):
		return fmt.Errorf("%w: %w", ErrUnknownFieldID, err)
	case errors.Is(err, fields.ErrTooManyFields):
		return fmt.Errorf("%w: %w", ErrTooManyFields, err)
	case errors.Is(err, kv.ErrClosed), errors.Is(err, kv.ErrTxDone):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	var se *kv.StorageError
	if errors.As(err, &se) ||
		errors.Is(err, extid.ErrExhausted) ||
		errors.Is(err, docstore.ErrCorrupt) ||
		errors.Is(err, textindex.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return err
}
