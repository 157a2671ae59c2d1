package kv

import "encoding/binary"

// Key prefixes. Each component owns exactly one prefix per direction.
const (
	PrefixMeta        byte = 'm' // counters
	PrefixFieldByName byte = 'F' // field name -> field id
	PrefixFieldByID   byte = 'f' // field id -> field name
	PrefixExtToDoc    byte = 'E' // external id -> doc id
	PrefixDocToExt    byte = 'e' // doc id -> external id
	PrefixDocument    byte = 'd' // doc id -> encoded document
	PrefixPosting     byte = 't' // token -> posting bitmap
	PrefixForward     byte = 'r' // doc id -> indexed tokens
)

// Key builds a key from a prefix and a byte suffix.
func Key(prefix byte, suffix []byte) []byte {
	key := make([]byte, 0, 1+len(suffix))
	key = append(key, prefix)
	return append(key, suffix...)
}

// StringKey builds a key from a prefix and a string suffix.
func StringKey(prefix byte, suffix string) []byte {
	key := make([]byte, 0, 1+len(suffix))
	key = append(key, prefix)
	return append(key, suffix...)
}

// Uint32Key builds a key from a prefix and a big-endian uint32, so that
// lexicographic key order equals numeric order.
func Uint32Key(prefix byte, v uint32) []byte {
	key := make([]byte, 1, 5)
	key[0] = prefix
	return binary.BigEndian.AppendUint32(key, v)
}

// Uint16Key builds a key from a prefix and a big-endian uint16.
func Uint16Key(prefix byte, v uint16) []byte {
	key := make([]byte, 1, 3)
	key[0] = prefix
	return binary.BigEndian.AppendUint16(key, v)
}

// MetaKey returns the key of a named counter.
func MetaKey(name string) []byte {
	return StringKey(PrefixMeta, name)
}

// PrefixUpperBound returns the smallest key greater than every key that has
// the given prefix, or nil if no such key exists (prefix is all 0xff).
func PrefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}

// EncodeUint32 encodes v as 4 big-endian bytes.
func EncodeUint32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// DecodeUint32 decodes 4 big-endian bytes.
func DecodeUint32(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

// EncodeUint64 encodes v as 8 big-endian bytes.
func EncodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

// DecodeUint64 decodes 8 big-endian bytes.
func DecodeUint64(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
