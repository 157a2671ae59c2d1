// Package docstore persists the field-indexed representation of documents.
//
// A document is stored under its internal id as
//
//	[compression tag][uvarint rawLen]? body
//	body := uvarint(fieldCount) { uint16be(fieldID) uvarint(len) value }
//
// with fields in ascending id order. The store also maintains a live
// document counter that moves with every insert and delete.
package docstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/model"
)

// ErrCorrupt is returned when a stored document cannot be decoded.
var ErrCorrupt = errors.New("docstore: corrupt document")

const countKey = "doc-count"

// Store reads and writes documents through a transaction.
type Store struct {
	compression Compression
}

// New returns a Store that compresses new documents with c.
// Documents written with a different setting remain readable.
func New(c Compression) *Store {
	return &Store{compression: c}
}

// Put inserts or overwrites the document stored under id.
func (s *Store) Put(w kv.Writer, id model.DocID, doc model.Document) error {
	data, err := s.encode(doc)
	if err != nil {
		return err
	}

	key := kv.Uint32Key(kv.PrefixDocument, uint32(id))
	_, existed, err := w.Get(key)
	if err != nil {
		return err
	}
	if err := w.Set(key, data); err != nil {
		return err
	}
	if !existed {
		return s.adjustCount(w, 1)
	}
	return nil
}

// Get returns the document stored under id.
func (s *Store) Get(r kv.Reader, id model.DocID) (model.Document, bool, error) {
	v, ok, err := r.Get(kv.Uint32Key(kv.PrefixDocument, uint32(id)))
	if err != nil || !ok {
		return model.Document{}, false, err
	}
	doc, err := decode(v)
	if err != nil {
		return model.Document{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, id, err)
	}
	return doc, true, nil
}

// GetMany returns the documents stored under ids. Missing ids are omitted.
func (s *Store) GetMany(r kv.Reader, ids []model.DocID) (map[model.DocID]model.Document, error) {
	out := make(map[model.DocID]model.Document, len(ids))
	for _, id := range ids {
		doc, ok, err := s.Get(r, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = doc
		}
	}
	return out, nil
}

// Delete removes the document stored under id and reports whether it existed.
func (s *Store) Delete(w kv.Writer, id model.DocID) (bool, error) {
	key := kv.Uint32Key(kv.PrefixDocument, uint32(id))
	_, existed, err := w.Get(key)
	if err != nil || !existed {
		return false, err
	}
	if err := w.Delete(key); err != nil {
		return false, err
	}
	return true, s.adjustCount(w, -1)
}

// Count returns the number of stored documents.
func (s *Store) Count(r kv.Reader) (uint64, error) {
	v, ok, err := r.Get(kv.MetaKey(countKey))
	if err != nil || !ok {
		return 0, err
	}
	n, ok := kv.DecodeUint64(v)
	if !ok {
		return 0, fmt.Errorf("%w: document counter", ErrCorrupt)
	}
	return n, nil
}

func (s *Store) adjustCount(w kv.Writer, delta int64) error {
	n, err := s.Count(w)
	if err != nil {
		return err
	}
	n = uint64(int64(n) + delta)
	return w.Set(kv.MetaKey(countKey), kv.EncodeUint64(n))
}

func (s *Store) encode(doc model.Document) ([]byte, error) {
	size := binary.MaxVarintLen32
	for _, f := range doc.Fields {
		size += 2 + binary.MaxVarintLen32 + len(f.Value)
	}
	body := make([]byte, 0, size)
	body = binary.AppendUvarint(body, uint64(len(doc.Fields)))

	prev := -1
	for _, f := range doc.Fields {
		if int(f.Field) <= prev {
			return nil, fmt.Errorf("docstore: fields not strictly ascending at %d", f.Field)
		}
		prev = int(f.Field)
		body = binary.BigEndian.AppendUint16(body, uint16(f.Field))
		body = binary.AppendUvarint(body, uint64(len(f.Value)))
		body = append(body, f.Value...)
	}
	return compress(body, s.compression)
}

func decode(data []byte) (model.Document, error) {
	body, err := decompress(data)
	if err != nil {
		return model.Document{}, err
	}

	count, n := binary.Uvarint(body)
	if n <= 0 {
		return model.Document{}, errors.New("bad field count")
	}
	body = body[n:]
	if count > uint64(len(body)) {
		return model.Document{}, errors.New("field count exceeds body")
	}

	doc := model.Document{Fields: make([]model.FieldValue, 0, count)}
	for i := uint64(0); i < count; i++ {
		if len(body) < 2 {
			return model.Document{}, errors.New("truncated field id")
		}
		id := model.FieldID(binary.BigEndian.Uint16(body))
		body = body[2:]

		l, n := binary.Uvarint(body)
		if n <= 0 || l > uint64(len(body)-n) {
			return model.Document{}, errors.New("truncated field value")
		}
		body = body[n:]
		value := make([]byte, l)
		copy(value, body[:l])
		body = body[l:]

		doc.Fields = append(doc.Fields, model.FieldValue{Field: id, Value: value})
	}
	if len(body) != 0 {
		return model.Document{}, errors.New("trailing bytes")
	}
	return doc, nil
}
