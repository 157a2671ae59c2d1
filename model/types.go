package model

import (
	"fmt"
	"sort"
)

// DocID is the sequential, internally assigned document identifier.
// IDs start at zero, strictly increase and are never reused.
type DocID uint32

// MaxDocID is the largest allocatable DocID.
const MaxDocID = ^DocID(0)

// String returns a string representation of the DocID.
func (id DocID) String() string {
	return fmt.Sprintf("Doc(%d)", uint32(id))
}

// ExternalID is the caller-supplied identifier taken from a record's
// primary-key field. Integer keys are stored as their decimal text.
type ExternalID string

// FieldID is the compact identifier assigned to a field name on first sight.
type FieldID uint16

// MaxFieldID is the largest allocatable FieldID.
const MaxFieldID = ^FieldID(0)

// FieldValue is one stored field of a document.
// Value holds the JSON encoding of the field's value.
type FieldValue struct {
	Field FieldID
	Value []byte
}

// Document is the field-indexed representation of a record.
// Fields are kept sorted by FieldID.
type Document struct {
	Fields []FieldValue
}

// NewDocument builds a Document from a FieldID -> value map.
func NewDocument(fields map[FieldID][]byte) Document {
	doc := Document{Fields: make([]FieldValue, 0, len(fields))}
	for id, v := range fields {
		doc.Fields = append(doc.Fields, FieldValue{Field: id, Value: v})
	}
	doc.Sort()
	return doc
}

// Sort orders the fields by FieldID.
func (d *Document) Sort() {
	sort.Slice(d.Fields, func(i, j int) bool {
		return d.Fields[i].Field < d.Fields[j].Field
	})
}

// Get returns the value stored for the given field.
func (d Document) Get(id FieldID) ([]byte, bool) {
	i := sort.Search(len(d.Fields), func(i int) bool { return d.Fields[i].Field >= id })
	if i < len(d.Fields) && d.Fields[i].Field == id {
		return d.Fields[i].Value, true
	}
	return nil, false
}

// Len returns the number of fields in the document.
func (d Document) Len() int { return len(d.Fields) }

// Hit is a ranked match produced by the text index.
type Hit struct {
	ID DocID
	// Score is the number of distinct query tokens matched by the document.
	Score int
}
