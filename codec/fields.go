package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when a record does not encode to a JSON object.
var ErrNotObject = errors.New("record is not a JSON object")

// Fields is the name -> raw JSON value representation of a record.
type Fields map[string]json.RawMessage

// EncodeFields converts v into its field map.
func EncodeFields(c Codec, v any) (Fields, error) {
	if c == nil {
		c = Default
	}
	data, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: %T", ErrNotObject, v)
	}
	var fields Fields
	if err := c.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}

// DecodeFields materializes fields into v, which must be a pointer.
func DecodeFields(c Codec, fields Fields, v any) error {
	if c == nil {
		c = Default
	}
	if fields == nil {
		fields = Fields{}
	}
	data, err := c.Marshal(fields)
	if err != nil {
		return err
	}
	return c.Unmarshal(data, v)
}
