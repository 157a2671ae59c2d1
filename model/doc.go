// Package model defines core types used throughout lexigo.
//
// # Identity Types
//
//   - DocID: Dense, internally assigned document identifier (uint32)
//   - ExternalID: Caller-facing document identifier in canonical string form
//   - FieldID: Compact numeric identifier of a field name (uint16)
//
// # Data Types
//
//   - FieldValue: A single (FieldID, encoded value) pair
//   - Document: The field-indexed representation owned by the document store
//   - Hit: A ranked search match
package model
