// Package fields implements the field dictionary.
//
// The dictionary assigns a compact model.FieldID to every field name the
// first time it is seen, inside the enclosing write transaction. The mapping
// only ever grows; ids are never reassigned.
//
// Committed name lookups are cached in an LRU. Lookups made through a write
// transaction bypass the cache because an aborted transaction may hand the
// same id to a different name.
package fields
