// Package extid maps caller-visible external ids to internal document ids.
//
// Internal ids are allocated sequentially from a counter that is staged in
// the same write transaction as the registration, so an aborted insert
// leaves no gap. Once committed, the counter never moves backwards: ids of
// deleted documents are not reused.
package extid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/model"
)

var (
	// ErrDuplicate is returned when registering an external id twice.
	ErrDuplicate = errors.New("extid: already registered")

	// ErrInvalid is returned for a value that cannot be an external id.
	ErrInvalid = errors.New("extid: malformed")

	// ErrExhausted is returned when the internal id space is used up.
	ErrExhausted = errors.New("extid: internal id space exhausted")
)

// MaxLength is the maximum length in bytes of a string external id.
const MaxLength = 511

const nextDocKey = "next-doc"

// Parse canonicalizes the JSON encoding of an external id. Non-negative
// integers become their decimal text; strings must be non-empty, at most
// MaxLength bytes, and use only [A-Za-z0-9_-].
func Parse(raw json.RawMessage) (model.ExternalID, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return FromValue(v)
}

// FromValue canonicalizes a Go value into an external id.
func FromValue(v any) (model.ExternalID, error) {
	switch x := v.(type) {
	case model.ExternalID:
		return checkString(string(x))
	case string:
		return checkString(x)
	case json.Number:
		u, err := strconv.ParseUint(x.String(), 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %s is not a non-negative integer", ErrInvalid, x)
		}
		return model.ExternalID(strconv.FormatUint(u, 10)), nil
	case int:
		return fromInt(int64(x))
	case int8:
		return fromInt(int64(x))
	case int16:
		return fromInt(int64(x))
	case int32:
		return fromInt(int64(x))
	case int64:
		return fromInt(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return fromUint(uint64(x))
	case uint16:
		return fromUint(uint64(x))
	case uint32:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case float64:
		if x < 0 || x != float64(uint64(x)) {
			return "", fmt.Errorf("%w: %v is not a non-negative integer", ErrInvalid, x)
		}
		return fromUint(uint64(x))
	case nil:
		return "", fmt.Errorf("%w: null", ErrInvalid)
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalid, v)
	}
}

func fromInt(v int64) (model.ExternalID, error) {
	if v < 0 {
		return "", fmt.Errorf("%w: %d is negative", ErrInvalid, v)
	}
	return fromUint(uint64(v))
}

func fromUint(v uint64) (model.ExternalID, error) {
	return model.ExternalID(strconv.FormatUint(v, 10)), nil
}

func checkString(s string) (model.ExternalID, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty string", ErrInvalid)
	}
	if len(s) > MaxLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalid, MaxLength)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return "", fmt.Errorf("%w: invalid character %q", ErrInvalid, c)
		}
	}
	return model.ExternalID(s), nil
}

// Register records ext and returns its newly allocated internal id.
func Register(w kv.Writer, ext model.ExternalID) (model.DocID, error) {
	_, ok, err := Resolve(w, ext)
	if err != nil {
		return 0, err
	}
	if ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicate, ext)
	}

	next, err := Next(w)
	if err != nil {
		return 0, err
	}
	if next == uint64(model.MaxDocID)+1 {
		return 0, ErrExhausted
	}
	id := model.DocID(next)

	if err := w.Set(kv.StringKey(kv.PrefixExtToDoc, string(ext)), kv.EncodeUint32(uint32(id))); err != nil {
		return 0, err
	}
	if err := w.Set(kv.Uint32Key(kv.PrefixDocToExt, uint32(id)), []byte(ext)); err != nil {
		return 0, err
	}
	if err := w.Set(kv.MetaKey(nextDocKey), kv.EncodeUint64(next+1)); err != nil {
		return 0, err
	}
	return id, nil
}

// Resolve looks up the internal id of ext.
func Resolve(r kv.Reader, ext model.ExternalID) (model.DocID, bool, error) {
	v, ok, err := r.Get(kv.StringKey(kv.PrefixExtToDoc, string(ext)))
	if err != nil || !ok {
		return 0, false, err
	}
	id, ok := kv.DecodeUint32(v)
	if !ok {
		return 0, false, fmt.Errorf("extid: corrupt mapping for %s", ext)
	}
	return model.DocID(id), true, nil
}

// External looks up the external id of an internal id.
func External(r kv.Reader, id model.DocID) (model.ExternalID, bool, error) {
	v, ok, err := r.Get(kv.Uint32Key(kv.PrefixDocToExt, uint32(id)))
	if err != nil || !ok {
		return "", false, err
	}
	return model.ExternalID(v), true, nil
}

// Remove deletes both directions of the mapping for ext. The internal id
// stays allocated.
func Remove(w kv.Writer, ext model.ExternalID, id model.DocID) error {
	if err := w.Delete(kv.StringKey(kv.PrefixExtToDoc, string(ext))); err != nil {
		return err
	}
	return w.Delete(kv.Uint32Key(kv.PrefixDocToExt, uint32(id)))
}

// Next returns the internal id the next Register will allocate.
func Next(r kv.Reader) (uint64, error) {
	v, ok, err := r.Get(kv.MetaKey(nextDocKey))
	if err != nil || !ok {
		return 0, err
	}
	n, ok := kv.DecodeUint64(v)
	if !ok {
		return 0, errors.New("extid: corrupt counter")
	}
	return n, nil
}
