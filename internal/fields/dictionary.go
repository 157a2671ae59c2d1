package fields

import (
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/model"
)

var (
	// ErrUnknownFieldID is returned when a field id was never allocated.
	ErrUnknownFieldID = errors.New("fields: id not allocated")

	// ErrTooManyFields is returned when the field id space is exhausted.
	ErrTooManyFields = errors.New("fields: dictionary full")

	// ErrEmptyName is returned for an empty field name.
	ErrEmptyName = errors.New("fields: empty name")
)

const nextFieldKey = "next-field"

// DefaultCacheSize is the number of committed id -> name entries cached.
const DefaultCacheSize = 4096

// Field is a single dictionary entry.
type Field struct {
	ID   model.FieldID
	Name string
}

// Dictionary maps field names to field ids.
type Dictionary struct {
	names *lru.Cache[model.FieldID, string]
}

// New creates a Dictionary. A non-positive cacheSize uses DefaultCacheSize.
func New(cacheSize int) *Dictionary {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	names, _ := lru.New[model.FieldID, string](cacheSize)
	return &Dictionary{names: names}
}

// IDFor returns the id of name, allocating the next unused id if name is new.
// created reports whether an allocation happened.
func (d *Dictionary) IDFor(w kv.Writer, name string) (id model.FieldID, created bool, err error) {
	if name == "" {
		return 0, false, ErrEmptyName
	}
	id, ok, err := d.Lookup(w, name)
	if err != nil || ok {
		return id, false, err
	}

	next, err := d.next(w)
	if err != nil {
		return 0, false, err
	}
	if next > uint32(model.MaxFieldID) {
		return 0, false, fmt.Errorf("%w: limit is %d", ErrTooManyFields, uint32(model.MaxFieldID)+1)
	}
	id = model.FieldID(next)

	if err := w.Set(kv.StringKey(kv.PrefixFieldByName, name), binary.BigEndian.AppendUint16(nil, uint16(id))); err != nil {
		return 0, false, err
	}
	if err := w.Set(kv.Uint16Key(kv.PrefixFieldByID, uint16(id)), []byte(name)); err != nil {
		return 0, false, err
	}
	if err := w.Set(kv.MetaKey(nextFieldKey), kv.EncodeUint32(next+1)); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Lookup returns the id of name without allocating.
func (d *Dictionary) Lookup(r kv.Reader, name string) (model.FieldID, bool, error) {
	v, ok, err := r.Get(kv.StringKey(kv.PrefixFieldByName, name))
	if err != nil || !ok {
		return 0, false, err
	}
	if len(v) != 2 {
		return 0, false, fmt.Errorf("fields: corrupt id for %q", name)
	}
	return model.FieldID(binary.BigEndian.Uint16(v)), true, nil
}

// NameFor returns the name of id. It fails with ErrUnknownFieldID if id was
// never allocated.
func (d *Dictionary) NameFor(r kv.Reader, id model.FieldID) (string, error) {
	if r.ReadOnly() {
		if name, ok := d.names.Get(id); ok {
			return name, nil
		}
	}
	v, ok, err := r.Get(kv.Uint16Key(kv.PrefixFieldByID, uint16(id)))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownFieldID, id)
	}
	name := string(v)
	if r.ReadOnly() {
		d.names.Add(id, name)
	}
	return name, nil
}

// All returns every field in id order.
func (d *Dictionary) All(r kv.Reader) ([]Field, error) {
	lower := []byte{kv.PrefixFieldByID}
	var out []Field
	err := r.Scan(lower, kv.PrefixUpperBound(lower), func(key, value []byte) error {
		if len(key) != 3 {
			return fmt.Errorf("fields: corrupt key %x", key)
		}
		out = append(out, Field{
			ID:   model.FieldID(binary.BigEndian.Uint16(key[1:])),
			Name: string(value),
		})
		return nil
	})
	return out, err
}

// Len returns the number of allocated fields.
func (d *Dictionary) Len(r kv.Reader) (int, error) {
	n, err := d.next(r)
	return int(n), err
}

func (d *Dictionary) next(r kv.Reader) (uint32, error) {
	v, ok, err := r.Get(kv.MetaKey(nextFieldKey))
	if err != nil || !ok {
		return 0, err
	}
	n, ok := kv.DecodeUint32(v)
	if !ok {
		return 0, errors.New("fields: corrupt counter")
	}
	return n, nil
}
